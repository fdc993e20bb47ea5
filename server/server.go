// Package server exposes the chat endpoint over HTTP.
//
// POST /api/chat validates the submitted conversation and streams the
// provider's reply back as server-sent events (see package sse). Validation
// failures never open a stream; they are answered with HTTP 400 and a JSON
// body of the form {"error": "..."}.
package server

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"streamchat/model"
)

// DefaultMaxBodyBytes caps request bodies when Config.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 64 << 20

// Config holds the HTTP server settings.
type Config struct {
	Addr         string
	MaxBodyBytes int64
	// ProviderName is reported by /health.
	ProviderName string
}

// Server serves the chat API with a single injected provider.
type Server struct {
	cfg      Config
	provider model.Provider
	logger   *log.Logger
	mux      *http.ServeMux

	mu     sync.Mutex
	server *http.Server
}

// New creates a server streaming replies from p. A nil logger discards
// access logs.
func New(cfg Config, p model.Provider, logger *log.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &Server{
		cfg:      cfg,
		provider: p,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		RequestIDMiddleware(),
		LoggingMiddleware(s.logger),
	)(s.mux)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe listens on Config.Addr and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: replies stream for as long as the provider talks.
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Printf("SERVER_START | addr=%s provider=%s model=%s", l.Addr(), s.cfg.ProviderName, s.provider.GetModel())
	return srv.Serve(l)
}

// Shutdown gracefully stops the server, waiting for in-flight streams until
// ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return srv.Shutdown(ctx)
}
