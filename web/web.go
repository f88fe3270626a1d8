// Package web provides the HTTP server of the dispatch API, including
// routing, middleware and background job scheduling.
package web

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dispatchhub/dispatch/config"
	"github.com/dispatchhub/dispatch/database"
	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/util/clock"
	"github.com/dispatchhub/dispatch/util/common"
	"github.com/dispatchhub/dispatch/web/cache"
	"github.com/dispatchhub/dispatch/web/controller"
	"github.com/dispatchhub/dispatch/web/job"
	"github.com/dispatchhub/dispatch/web/locale"
	"github.com/dispatchhub/dispatch/web/middleware"
	"github.com/dispatchhub/dispatch/web/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/atomic"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 10 * time.Second
	memThreshold    = 90
)

// Server is the API server with its services and scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	api *controller.APIController

	db    *gorm.DB
	store cache.Store
	clock clock.Clock
	addr  string

	cron    *cron.Cron
	running *atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server on db and store. An empty addr means the
// configured listen address and port.
func NewServer(db *gorm.DB, store cache.Store, clk clock.Clock, addr string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	if addr == "" {
		addr = net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	}
	if clk == nil {
		clk = clock.System
	}
	return &Server{
		db:      db,
		store:   store,
		clock:   clk,
		addr:    addr,
		running: atomic.NewBool(false),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// initRouter initializes Gin, registers middleware and controllers and
// returns the configured engine.
func (s *Server) initRouter() *gin.Engine {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.AccessLogMiddleware())
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/healthz"})))
	engine.Use(locale.LocalizerMiddleware())
	engine.Use(middleware.RateLimitMiddleware(s.store, middleware.DefaultRateLimitConfig()))

	s.api = controller.NewAPIController(&engine.RouterGroup, controller.Services{
		Users:   service.NewUserService(s.db, s.store, s.clock),
		Drivers: service.NewDriverService(s.db, s.clock),
	}, s.cron)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})
	return engine
}

// startTask schedules the background jobs.
func (s *Server) startTask() {
	if database.IsSQLite() {
		if _, err := s.cron.AddJob("@every 10m", job.NewCheckpointJob()); err != nil {
			logger.Warning("add checkpoint job failed:", err)
		}
	}
	if _, err := s.cron.AddJob("@every 1m", job.NewCheckMemJob(memThreshold)); err != nil {
		logger.Warning("add mem check job failed:", err)
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() (err error) {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("server already running")
	}
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if err := locale.InitLocalizer(); err != nil {
		return err
	}

	loc, err := time.LoadLocation(config.GetTimeLocation())
	if err != nil {
		logger.Warning("invalid time location, using UTC:", err)
		loc = time.UTC
	}
	s.cron = cron.New(cron.WithLocation(loc))
	s.cron.Start()

	engine := s.initRouter()

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts down the HTTP server, the cron scheduler and the cache.
// The database stays open; it belongs to the caller.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	var errHTTP, errCache error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errHTTP = s.httpServer.Shutdown(ctx)
	} else if s.listener != nil {
		errHTTP = s.listener.Close()
	}
	if s.store != nil {
		errCache = s.store.Close()
	}
	return common.Combine(errHTTP, errCache)
}

// IsRunning reports whether Start succeeded and Stop has not been called.
func (s *Server) IsRunning() bool { return s.running.Load() }

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

// GetCron returns the server's cron scheduler instance.
func (s *Server) GetCron() *cron.Cron { return s.cron }
