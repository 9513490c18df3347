// Package server exposes the scoring engine over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/metrics"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIKeyHeader carries the shared secret on every /api request.
const APIKeyHeader = "X-API-Key"

// DefaultMaxUploadBytes bounds batch uploads.
const DefaultMaxUploadBytes = 32 << 20

// Scorer is the part of the engine the API serves.
type Scorer interface {
	ScoreOne(ctx context.Context, record model.Transaction) (model.Prediction, error)
	ScoreTable(ctx context.Context, t *dataset.Table) (*dataset.Table, error)
}

// Config configures the HTTP server.
type Config struct {
	Addr            string
	APIKey          string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// Server wraps the HTTP server and its scorer.
type Server struct {
	cfg     Config
	scorer  Scorer
	router  *gin.Engine
	httpSrv *http.Server
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New builds a server. An empty API key is a configuration error: the API
// never runs unauthenticated.
func New(cfg Config, scorer Scorer, opts ...Option) (*Server, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: server API key (set RISK_SERVER_API_KEY)", common.ErrMissingConfig)
	}
	if scorer == nil {
		return nil, fmt.Errorf("%w: scorer is required", common.ErrInvalidInput)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		scorer: scorer,
		router: gin.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
			"request_id", c.GetString("request_id"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	s.router.Use(metrics.Middleware())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", metrics.Handler())

	api := s.router.Group("/api", s.requireAPIKey())
	api.GET("/", s.rootHandler)
	api.POST("/predict", s.predictHandler)
	api.POST("/predict_batch", s.predictBatchHandler)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		}

		// Log level based on status code
		switch {
		case status >= 500:
			s.logger.Error("request completed", append(attrs, "client_ip", c.ClientIP())...)
		case status >= 400:
			s.logger.Warn("request completed", attrs...)
		default:
			s.logger.Info("request completed", attrs...)
		}
	}
}

// requireAPIKey rejects requests whose key does not match the configured one.
func (s *Server) requireAPIKey() gin.HandlerFunc {
	want := []byte(s.cfg.APIKey)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(APIKeyHeader))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid API Key. Include the '" + APIKeyHeader + "' header.",
			})
			return
		}
		c.Next()
	}
}

// Router returns the gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.cfg.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
