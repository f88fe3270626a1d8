package controller

import (
	"net/http"

	"github.com/dispatchhub/dispatch/web/service"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// APIController mounts the JSON API.
type APIController struct {
	BaseController

	userController   *UserController
	driverController *DriverController
	serverController *ServerController
}

// Services bundles what the API handlers depend on.
type Services struct {
	Users   *service.UserService
	Drivers *service.DriverService
}

func NewAPIController(g *gin.RouterGroup, svc Services, c *cron.Cron) *APIController {
	a := &APIController{}
	a.initRouter(g, svc, c)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup, svc Services, c *cron.Cron) {
	g.GET("/healthz", a.healthz)

	api := g.Group("/api")
	a.userController = NewUserController(api.Group("/users"), svc.Users)
	a.driverController = NewDriverController(api.Group("/drivers"), svc.Drivers)
	a.serverController = NewServerController(api.Group("/server"), c)
}

func (a *APIController) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
