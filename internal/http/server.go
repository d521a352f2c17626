// Package http provides the host HTTP server for otelboot.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/otelboot/internal/logging"
	"github.com/fyrsmithlabs/otelboot/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server provides the host HTTP endpoints.
type Server struct {
	echo      *echo.Echo
	logger    *logging.Logger
	config    *Config
	telemetry *telemetry.Telemetry
	registry  *prometheus.Registry
	health    *healthMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server. tel may be nil when telemetry is not
// running; /health then reports it as disabled.
func NewServer(logger *logging.Logger, cfg *Config, tel *telemetry.Telemetry) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 3000,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		logger:    logger.Named("http"),
		config:    cfg,
		telemetry: tel,
		registry:  prometheus.NewRegistry(),
	}
	s.health = newHealthMetrics(s.registry, tel)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(TracingMiddleware(nil))
	e.Use(NewHTTPMetrics(nil, s.logger).MetricsMiddleware())
	e.Use(s.requestLogger)

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

// requestLogger logs each request with the request ID and, when a span is
// active, trace correlation fields.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		req := c.Request()
		ctx := logging.WithLogger(req.Context(), s.logger)
		if id := c.Response().Header().Get(echo.HeaderXRequestID); logging.ValidateRequestID(id) == nil {
			ctx = logging.WithRequestID(ctx, id)
		}
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			// Let echo write the error response so the logged status is final.
			c.Error(err)
		}

		s.logger.Info(ctx, "http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)

		return nil
	}
}

// Echo returns the underlying echo instance for registering extra routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server. It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
