package controller

import (
	"strconv"

	"github.com/dispatchhub/dispatch/web/entity"
	"github.com/dispatchhub/dispatch/web/service"

	"github.com/gin-gonic/gin"
)

type DriverController struct {
	BaseController

	driverService *service.DriverService
}

func NewDriverController(g *gin.RouterGroup, driverService *service.DriverService) *DriverController {
	a := &DriverController{driverService: driverService}
	a.initRouter(g)
	return a
}

func (a *DriverController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.list)
	g.POST("", a.create)
	g.GET("/:id", a.get)
	g.PATCH("/:id", a.update)
	g.POST("/:id/activate", a.setActive(true))
	g.POST("/:id/deactivate", a.setActive(false))
	g.DELETE("/:id", a.delete)
}

func (a *DriverController) list(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	drivers, err := a.driverService.List(c.Request.Context(), activeOnly)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, drivers)
}

func (a *DriverController) create(c *gin.Context) {
	data, ok := rawBody(c)
	if !ok {
		return
	}
	in, err := entity.DecodeDriverCreate(data)
	if err != nil {
		jsonError(c, err)
		return
	}
	driver, err := a.driverService.Create(c.Request.Context(), in)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, driver)
}

func (a *DriverController) get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	driver, err := a.driverService.Get(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, driver)
}

func (a *DriverController) update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	data, ok := rawBody(c)
	if !ok {
		return
	}
	in, err := entity.DecodeDriverUpdate(data)
	if err != nil {
		jsonError(c, err)
		return
	}
	driver, err := a.driverService.Update(c.Request.Context(), id, in)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonObj(c, driver)
}

func (a *DriverController) setActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		driver, err := a.driverService.SetActive(c.Request.Context(), id, active)
		if err != nil {
			jsonError(c, err)
			return
		}
		jsonObj(c, driver)
	}
}

func (a *DriverController) delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := a.driverService.Delete(c.Request.Context(), id); err != nil {
		jsonError(c, err)
		return
	}
	jsonMsg(c, "ok")
}
