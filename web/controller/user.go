package controller

import (
	"strconv"

	"github.com/dispatchhub/dispatch/web/entity"
	"github.com/dispatchhub/dispatch/web/service"

	"github.com/gin-gonic/gin"
)

// UserController exposes user registration and maintenance.
type UserController struct {
	BaseController

	userService *service.UserService
}

func NewUserController(g *gin.RouterGroup, userService *service.UserService) *UserController {
	a := &UserController{userService: userService}
	a.initRouter(g)
	return a
}

func (a *UserController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.list)
	g.POST("", a.create)
	g.GET("/:id", a.get)
	g.GET("/telegram/:telegramId", a.getByTelegramID)
	g.PATCH("/:id", a.update)
	g.DELETE("/:id", a.delete)
}

func (a *UserController) list(c *gin.Context) {
	users, err := a.userService.List(c.Request.Context())
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, users)
}

func (a *UserController) create(c *gin.Context) {
	data, ok := rawBody(c)
	if !ok {
		return
	}
	in, err := entity.DecodeUserCreate(data)
	if err != nil {
		jsonError(c, err)
		return
	}
	user, err := a.userService.Create(c.Request.Context(), in)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, user)
}

func (a *UserController) get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	user, err := a.userService.Get(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, user)
}

func (a *UserController) getByTelegramID(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegramId"), 10, 64)
	if err != nil {
		jsonError(c, service.ErrNotFound)
		return
	}
	user, err := a.userService.GetByTelegramID(c.Request.Context(), telegramID)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, user)
}

func (a *UserController) update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	data, ok := rawBody(c)
	if !ok {
		return
	}
	in, err := entity.DecodeUserUpdate(data)
	if err != nil {
		jsonError(c, err)
		return
	}
	user, err := a.userService.Update(c.Request.Context(), id, in)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, user)
}

func (a *UserController) delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := a.userService.Delete(c.Request.Context(), id); err != nil {
		jsonError(c, err)
		return
	}
	jsonMsg(c, "ok")
}
