// Package server provides the HTTP API for Axiom.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/axiomgov/axiom/internal/analytics"
	"github.com/axiomgov/axiom/internal/config"
	"github.com/axiomgov/axiom/internal/ingest"
	"github.com/axiomgov/axiom/internal/rag"
	"github.com/axiomgov/axiom/internal/vector"
)

// Server is the HTTP server for the Axiom API.
type Server struct {
	engine  *rag.Engine
	indexer *ingest.Indexer
	store   *vector.Store
	tracker *analytics.Tracker
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *rag.Engine,
	indexer *ingest.Indexer,
	store *vector.Store,
	tracker *analytics.Tracker,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:  engine,
		indexer: indexer,
		store:   store,
		tracker: tracker,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/questions/ask", s.handleAsk)
	r.Get("/api/v1/questions/history", s.handleHistory)
	r.Get("/api/v1/questions/by-category/{category}", s.handleByCategory)
	r.Post("/api/v1/documents", s.handleUploadDocument)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/documents/stats", s.handleDocumentStats)
	r.Get("/api/v1/analytics/dashboard", s.handleDashboard)
	r.Get("/api/v1/analytics/confidence-coverage", s.handleConfidenceCoverage)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
