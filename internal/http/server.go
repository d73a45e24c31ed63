// Package http serves the composed REST API: project listing and editing,
// compose lifecycle actions, and support bundle downloads.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/composed/internal/action"
	"github.com/fyrsmithlabs/composed/internal/bundle"
	"github.com/fyrsmithlabs/composed/internal/compose"
	"github.com/fyrsmithlabs/composed/internal/logging"
	"github.com/fyrsmithlabs/composed/internal/project"
	"github.com/fyrsmithlabs/composed/internal/telemetry"
)

var tracer = otel.Tracer(httpInstrumentationName)

// ProjectIndex lists and loads compose projects.
type ProjectIndex interface {
	List(ctx context.Context) ([]compose.Project, error)
	Get(ctx context.Context, name string) (*compose.Project, error)
}

// ActionRunner runs a compose action and returns the refreshed projects.
type ActionRunner interface {
	Run(ctx context.Context, projectName string, a action.Action) ([]compose.Project, error)
}

// BundleBuilder assembles support bundles.
type BundleBuilder interface {
	Build(ctx context.Context, projectName string) (*bundle.Bundle, error)
}

// Deps are the components behind the API.
type Deps struct {
	Projects ProjectIndex
	Files    project.Manager
	Actions  ActionRunner
	Bundles  BundleBuilder

	// Telemetry is reported by /health when set.
	Telemetry *telemetry.Telemetry

	// Meter records HTTP metrics. Nil uses the global meter provider.
	Meter metric.Meter

	// Version is reported by /health.
	Version string
}

// Server provides HTTP endpoints for composed.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	logger  *zap.Logger
	config  *Config
	tracer  trace.Tracer
	metrics *HTTPMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, logger *zap.Logger, cfg *Config) (*Server, error) {
	if deps.Projects == nil || deps.Files == nil || deps.Actions == nil || deps.Bundles == nil {
		return nil, errors.New("project index, file manager, action runner and bundle builder are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 8000,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = requestValidator{}

	s := &Server{
		echo:    e,
		deps:    deps,
		logger:  logger,
		config:  cfg,
		tracer:  tracer,
		metrics: NewHTTPMetrics(deps.Meter, logger),
	}
	e.HTTPErrorHandler = s.handleError

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(s.contextMiddleware)
	e.Use(s.tracingMiddleware)
	e.Use(s.metrics.MetricsMiddleware())
	e.Use(s.loggingMiddleware)

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/compose")
	api.GET("/", s.handleListProjects)
	api.POST("/", s.handleWriteCompose)
	api.GET("/:project", s.handleGetProject)
	api.DELETE("/:project", s.handleDeleteProject)
	api.GET("/:project/readfile/:file", s.handleReadFile)
	api.POST("/:project/writefile", s.handleWriteFile)
	api.Match([]string{http.MethodGet, http.MethodPost}, "/:project/actions/:action", s.handleAction)
	api.Match([]string{http.MethodGet, http.MethodPost}, "/:project/actions/:action/:service", s.handleAction)
	api.GET("/:project/support", s.handleSupportBundle)
}

// contextMiddleware tags the request context with the route's project and
// action so every log line below it carries them.
func (s *Server) contextMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if p := c.Param("project"); p != "" {
			ctx = logging.WithProject(ctx, p)
		}
		if a := c.Param("action"); a != "" {
			ctx = logging.WithAction(ctx, a)
		}
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func (s *Server) tracingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		route := normalizePath(c.Path())
		ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
		ctx, span := s.tracer.Start(ctx, req.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(req.Method),
				semconv.HTTPRoute(route),
			),
		)
		defer span.End()
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		status := c.Response().Status
		if err != nil && !c.Response().Committed {
			status, _ = statusForError(err)
		}
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if status >= http.StatusInternalServerError {
			span.RecordError(err)
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		return err
	}
}

func (s *Server) loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		duration := time.Since(start)

		status := c.Response().Status
		if err != nil && !c.Response().Committed {
			status, _ = statusForError(err)
		}
		s.logger.Info("http request",
			append(logging.ContextFields(c.Request().Context()),
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Duration("duration", duration),
			)...,
		)
		return err
	}
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	addr := s.Addr()
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
