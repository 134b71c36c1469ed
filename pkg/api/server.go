// Package api provides the live-view HTTP API over the event store: JSON
// reads for the current history, and a WebSocket feed that pushes the full
// snapshot on every store mutation. It is the consumer surface a
// presentation layer talks to; it never mutates events beyond clearing.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/netlens/netlens/pkg/logging"
	"github.com/netlens/netlens/pkg/store"
)

// Server is the live-view API server.
type Server struct {
	store      *store.Store
	httpServer *http.Server
	addr       string
	log        *slog.Logger
}

// NewServer creates a live-view server over the given store.
func NewServer(st *store.Store, addr string) *Server {
	s := &Server{
		store: st,
		addr:  addr,
		log:   logging.Nop(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: the watch endpoint holds its connection open.
	}
	return s
}

// SetLogger sets the operational logger.
func (s *Server) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	s.log.Info("starting live view API", "addr", s.addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("live view API server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the server's handler, for mounting in tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	// Event history
	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	mux.HandleFunc("DELETE /api/events", s.handleClearEvents)

	// Derived views
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/hosts", s.handleHosts)
	mux.HandleFunc("GET /api/methods", s.handleMethods)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	// Live feed
	mux.HandleFunc("GET /api/events/watch", s.handleWatch)
}
