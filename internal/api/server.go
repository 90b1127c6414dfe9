package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/jobtracker/internal/config"
	"github.com/ignite/jobtracker/internal/service/application"
)

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server over the application service. A
// service without a store still serves the diagnostic endpoints.
func NewServer(cfg *config.Config, svc *application.Service) *Server {
	handlers := NewHandlers(svc, cfg.Server.MaxBodyBytes)
	handlers.SetDiagnosticsEnv(cfg.Store.Env.DatabaseURL, cfg.Store.Env.DatabaseName)

	health := NewHealthChecker(svc)
	router := SetupRoutes(handlers, health, cfg.CORS)

	return &Server{
		config:  cfg.Server,
		handler: router,
	}
}

// Addr is the listen address from the server config.
func (s *Server) Addr() string {
	return s.config.Addr()
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
