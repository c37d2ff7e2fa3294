// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research orchestrator and the history store
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/portfolio-research/internal/history"
	"github.com/pdiddy/portfolio-research/internal/logging"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

// Runner runs one research request.
type Runner interface {
	Run(ctx context.Context, targets []string) types.ResearchResult
}

// Store is the subset of the history store used by the HTTP handlers.
type Store interface {
	Save(ctx context.Context, result types.ResearchResult) (int64, error)
	List(ctx context.Context, limit int) ([]history.Entry, error)
	Get(ctx context.Context, id int64) (*history.Entry, error)
}

// Server is the HTTP front end.
type Server struct {
	server *http.Server
	runner Runner
	store  Store
	logger *zap.Logger
}

// New builds a server. store may be nil, in which case results are not
// persisted and the history routes answer 503.
func New(cfg types.ServerConfig, runner Runner, store Store, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)
	s := &Server{runner: runner, store: store, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.POST("/pesquisar", s.handleResearch)

	hist := router.Group("/historico")
	hist.Use(s.requireStore)
	hist.GET("", s.handleHistoryList)
	hist.GET("/:id", s.handleHistoryGet)
	hist.GET("/:id/csv", s.handleHistoryCSV)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
