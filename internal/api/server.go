package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helppanel/backend/internal/api/handlers"
	"github.com/helppanel/backend/internal/database"
	"github.com/helppanel/backend/internal/health"
	"github.com/helppanel/backend/internal/middleware"
	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/services"
	"github.com/helppanel/backend/internal/tasks"
	"github.com/sirupsen/logrus"
)

const serviceName = "help-panel"

type Options struct {
	Port     string
	Security middleware.SecurityConfig
	Cache    database.Cache
	CacheTTL time.Duration
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	help    *handlers.HelpHandler
	health  *health.HealthChecker
	stats   func() tasks.Stats
	limiter *middleware.RateLimiter
	logger  *logrus.Logger
}

// NewServer wires the help routes. stats may be nil.
func NewServer(help services.HelpAPI, checker *health.HealthChecker, stats func() tasks.Stats, opts Options, logger *logrus.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	limiter := middleware.Setup(router, opts.Security, logger)

	s := &Server{
		router:  router,
		help:    handlers.NewHelpHandler(help, opts.Cache, opts.CacheTTL, logger),
		health:  checker,
		stats:   stats,
		limiter: limiter,
		logger:  logger,
	}
	s.http = &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api/v1/help")
	{
		api.GET("/content", s.help.HandleSearch)
		api.GET("/content/:id", s.help.HandleGetTopic)
		api.GET("/popular", s.help.HandlePopular)
		api.POST("/analytics", s.help.HandleRecordAnalytics)
		api.GET("/analytics/summary", s.help.HandleAnalyticsSummary)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is done or the listener fails. Rate limiter
// cleanup runs for the same lifetime.
func (s *Server) Start(ctx context.Context) error {
	if s.limiter != nil {
		go s.limiter.RunCleanup(ctx, time.Minute)
	}

	s.logger.WithField("addr", s.http.Addr).Info("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) healthCheck(c *gin.Context) {
	resp := models.HealthResponse{
		Status:    health.StatusHealthy,
		Service:   serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  map[string]string{},
	}

	if s.health != nil {
		overall := s.health.CheckAll(c.Request.Context())
		resp.Status = overall.Status
		for _, svc := range overall.Services {
			resp.Services[svc.Name] = svc.Status
		}
	}

	if s.stats != nil {
		resp.Tasks = s.stats()
	}

	code := http.StatusOK
	if resp.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
