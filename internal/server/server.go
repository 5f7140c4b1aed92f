// Package server provides the HTTP API for intaked.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/intaked/internal/intake"
	"github.com/fyrsmithlabs/intaked/internal/match"
	"github.com/fyrsmithlabs/intaked/internal/memory"
)

// Processor runs the intake pipeline on document text.
type Processor interface {
	Process(ctx context.Context, sourceText string) (intake.Outcome, error)
}

// Corrections stores operator corrections.
type Corrections interface {
	Add(ctx context.Context, documentText string, overrides memory.Overrides) error
}

// Converter resolves a document source to plain text.
type Converter interface {
	Convert(ctx context.Context, source string) (string, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// Thresholds drive the /resolve endpoints.
	Thresholds      match.Thresholds
	OptionThreshold int
}

// Server provides HTTP endpoints for intaked. The corrections and
// converter dependencies are optional; their endpoints return 503 when
// absent.
type Server struct {
	echo        *echo.Echo
	processor   Processor
	corrections Corrections
	converter   Converter
	logger      *zap.Logger
	config      Config
}

// NewServer creates a new HTTP server.
func NewServer(processor Processor, corrections Corrections, converter Converter, logger *zap.Logger, cfg Config) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Thresholds == (match.Thresholds{}) {
		cfg.Thresholds = match.DefaultThresholds()
	}
	if cfg.OptionThreshold == 0 {
		cfg.OptionThreshold = match.OptionThreshold
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:        e,
		processor:   processor,
		corrections: corrections,
		converter:   converter,
		logger:      logger,
		config:      cfg,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/process", s.handleProcess)
	v1.POST("/process-url", s.handleProcessURL)
	v1.POST("/corrections", s.handleAddCorrection)
	v1.POST("/resolve/identity", s.handleResolveIdentity)
	v1.POST("/resolve/option", s.handleResolveOption)
}

// ProcessRequest is the request body for POST /api/v1/process.
type ProcessRequest struct {
	Text string `json:"text"`
}

// ProcessURLRequest is the request body for POST /api/v1/process-url.
type ProcessURLRequest struct {
	Source string `json:"source"`
}

// ProcessResponse is the response body for both process endpoints.
type ProcessResponse struct {
	Record         intake.Record     `json:"record"`
	RequiresReview bool              `json:"requires_review"`
	Failures       map[string]string `json:"failures,omitempty"`
}

// CorrectionRequest is the request body for POST /api/v1/corrections.
type CorrectionRequest struct {
	SourceText string            `json:"source_text"`
	Overrides  map[string]string `json:"overrides"`
}

// ResolveIdentityRequest is the request body for POST /api/v1/resolve/identity.
type ResolveIdentityRequest struct {
	Target     string            `json:"target"`
	Candidates []match.Candidate `json:"candidates"`
}

// ResolveOptionRequest is the request body for POST /api/v1/resolve/option.
type ResolveOptionRequest struct {
	Target  string   `json:"target"`
	Options []string `json:"options"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleProcess(c echo.Context) error {
	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid process request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}

	return s.process(c, req.Text)
}

func (s *Server) handleProcessURL(c echo.Context) error {
	if s.converter == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "document conversion is not configured")
	}

	var req ProcessURLRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid process-url request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Source == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "source field is required")
	}

	text, err := s.converter.Convert(c.Request().Context(), req.Source)
	if err != nil {
		s.logger.Error("document conversion failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "document conversion failed")
	}

	return s.process(c, text)
}

func (s *Server) process(c echo.Context, text string) error {
	outcome, err := s.processor.Process(c.Request().Context(), text)
	if err != nil {
		if errors.Is(err, intake.ErrEmptyDocument) {
			return echo.NewHTTPError(http.StatusBadRequest, "document text is empty")
		}
		s.logger.Error("processing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "processing failed")
	}

	return c.JSON(http.StatusOK, ProcessResponse{
		Record:         outcome.Record,
		RequiresReview: outcome.Record.RequiresReview(),
		Failures:       outcome.FailureSummary(),
	})
}

func (s *Server) handleAddCorrection(c echo.Context) error {
	if s.corrections == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "correction memory is not configured")
	}

	var req CorrectionRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid correction request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SourceText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "source_text field is required")
	}
	if len(req.Overrides) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "overrides field is required")
	}

	if err := s.corrections.Add(c.Request().Context(), req.SourceText, req.Overrides); err != nil {
		if errors.Is(err, memory.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "correction memory is unavailable")
		}
		s.logger.Error("storing correction failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "storing correction failed")
	}

	return c.NoContent(http.StatusCreated)
}

func (s *Server) handleResolveIdentity(c echo.Context) error {
	var req ResolveIdentityRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid resolve request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result := match.ResolveIdentity(req.Target, req.Candidates, s.config.Thresholds)
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleResolveOption(c echo.Context) error {
	var req ResolveOptionRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid resolve request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	candidates := make([]match.Candidate, len(req.Options))
	for i, opt := range req.Options {
		candidates[i] = match.Candidate{Display: opt}
	}

	result := match.ResolveOption(req.Target, candidates, s.config.OptionThreshold)
	return c.JSON(http.StatusOK, result)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
