// Package web serves the attendance HTTP API.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/crewmark/crewmark/internal/attendance"
	"github.com/crewmark/crewmark/internal/config"
	"github.com/crewmark/crewmark/internal/store"
	"github.com/crewmark/crewmark/internal/web/handlers"
	"github.com/crewmark/crewmark/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Stores bundles the persistence collaborators the API serves from.
type Stores struct {
	Templates store.TemplateWriter
	People    store.PersonReader
	Records   store.RecordStore
	Events    store.EventReader
}

// Server represents the web server.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	extractor  handlers.Extractor
	pipeline   *attendance.Pipeline
	stores     Stores
}

// NewServer creates a new web server.
func NewServer(cfg *config.Config, port int, host string, ext handlers.Extractor, pipeline *attendance.Pipeline, stores Stores) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:    cfg,
		router:    r,
		extractor: ext,
		pipeline:  pipeline,
		stores:    stores,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
