package server

import (
	"time"

	"livegraphs/internal/analytics"
	"livegraphs/internal/config"
	"livegraphs/internal/database"
	"livegraphs/internal/handlers"
	"livegraphs/internal/results"
	"livegraphs/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Server represents the application server
type Server struct {
	echo      *echo.Echo
	engine    *database.Engine
	analytics *analytics.Service
	validator *validation.Validator
	results   *results.Store
	config    *config.Config
	logger    zerolog.Logger
}

// New creates a new server instance
func New(cfg *config.Config, engine *database.Engine, svc *analytics.Service, logger zerolog.Logger) *Server {
	return &Server{
		config:    cfg,
		engine:    engine,
		analytics: svc,
		validator: validation.New(),
		results:   results.New(),
		logger:    logger,
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	// Middleware
	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	// Hide Echo banner
	s.echo.HideBanner = true

	// Setup routes
	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	// API group with /api prefix
	api := s.echo.Group("/api")

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoints (keep at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.engine))

	// API endpoints under /api prefix
	api.GET("/", handlers.RootHandler(s.config.Version))
	api.POST("/upload", handlers.UploadHandler(s.validator, s.engine, s.logger))
	api.GET("/dashboard", handlers.DashboardHandler(s.analytics, s.results, s.engine, s.logger))
	api.GET("/stats", handlers.StatsHandler(s.engine))
	api.GET("/export", handlers.ExportHandler(s.engine, s.logger))
	api.DELETE("/data", handlers.ClearHandler(s.engine, s.results, s.logger))

	// Serve the dashboard assets (this should be last to avoid conflicts)
	s.echo.Static("/", s.config.StaticDir)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}
