package controller

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/web/service"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// ServerController reports process health and recent logs.
type ServerController struct {
	BaseController

	serverService *service.ServerService

	mu         sync.RWMutex
	lastStatus *service.Status
}

// NewServerController registers the routes and, when c is not nil, keeps
// the status snapshot fresh on a schedule.
func NewServerController(g *gin.RouterGroup, c *cron.Cron) *ServerController {
	a := &ServerController{serverService: service.NewServerService()}
	a.initRouter(g)
	a.startTask(c)
	return a
}

func (a *ServerController) initRouter(g *gin.RouterGroup) {
	g.GET("/status", a.status)
	g.GET("/logs/:count", a.getLogs)
}

func (a *ServerController) refreshStatus() {
	st := a.serverService.GetStatus()
	a.mu.Lock()
	a.lastStatus = st
	a.mu.Unlock()
}

func (a *ServerController) startTask(c *cron.Cron) {
	if c == nil {
		return
	}
	if _, err := c.AddFunc("@every 5s", a.refreshStatus); err != nil {
		logger.Warning("schedule status refresh failed:", err)
	}
}

// status returns the latest snapshot, taking one if none exists yet.
func (a *ServerController) status(c *gin.Context) {
	a.mu.RLock()
	st := a.lastStatus
	a.mu.RUnlock()
	if st == nil {
		a.refreshStatus()
		a.mu.RLock()
		st = a.lastStatus
		a.mu.RUnlock()
	}
	jsonObj(c, st)
}

// getLogs returns up to :count buffered log lines at or above ?level.
func (a *ServerController) getLogs(c *gin.Context) {
	count, err := strconv.Atoi(c.Param("count"))
	if err != nil || count <= 0 {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid count")
		return
	}
	level := c.DefaultQuery("level", "INFO")
	jsonObj(c, logger.GetLogs(count, level))
}
