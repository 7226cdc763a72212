// Package server exposes the answering backend over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studymate/internal/domain"
)

// Backend is what the HTTP layer needs from the answering pipeline.
type Backend interface {
	domain.Answerer
	ChunkCount() int
}

// Config holds the HTTP server settings.
type Config struct {
	Addr            string
	AllowedOrigins  []string
	RateLimitQPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// Server is the gin-based answering API.
type Server struct {
	cfg     Config
	backend Backend
	logger  *zap.Logger
	engine  *gin.Engine
}

// New builds the router. It does not start listening.
func New(cfg Config, backend Backend, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{cfg: cfg, backend: backend, logger: logger}

	r := gin.New()
	r.Use(RequestLogger(logger), gin.Recovery(), CORS(cfg.AllowedOrigins, logger))
	if cfg.RateLimitQPS > 0 {
		r.Use(RateLimit(cfg.RateLimitQPS, cfg.RateLimitBurst))
	}
	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.POST("/ask", s.handleAsk)
	s.engine = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
