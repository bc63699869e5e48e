// Package server exposes the HTTP and WebSocket API over the cached books,
// the execution simulator, and the persisted run history.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bookscope/internal/domain"
	"bookscope/internal/server/handler"
	"bookscope/internal/server/middleware"
	"bookscope/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit caps requests per client IP per RateLimitWindow. Zero
	// disables rate limiting.
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates the HTTP handlers the server registers. Audit and
// Archive are optional and their routes are skipped when nil.
type Handlers struct {
	Health   *handler.HealthHandler
	Venues   *handler.VenueHandler
	Books    *handler.BookHandler
	Simulate *handler.SimulateHandler
	Audit    *handler.AuditHandler
	Archive  *handler.ArchiveHandler
}

// Server is the headless HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered and the middleware
// chain (CORS, logging, rate limiting, auth) applied. limiter may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (exempt from auth in the middleware).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Venue and book endpoints.
	mux.HandleFunc("GET /api/venues", handlers.Venues.ListVenues)
	mux.HandleFunc("GET /api/books/{venue}", handlers.Books.GetBook)
	mux.HandleFunc("GET /api/books/{venue}/depth", handlers.Books.GetDepth)
	mux.HandleFunc("GET /api/books/{venue}/bbo", handlers.Books.GetBBO)

	// Simulation endpoints.
	mux.HandleFunc("POST /api/simulate", handlers.Simulate.Simulate)
	mux.HandleFunc("GET /api/simulations", handlers.Simulate.ListSimulations)
	mux.HandleFunc("GET /api/simulations/{id}", handlers.Simulate.GetSimulation)

	// Operational endpoints.
	if handlers.Audit != nil {
		mux.HandleFunc("GET /api/audit", handlers.Audit.ListAudit)
	}
	if handlers.Archive != nil {
		mux.HandleFunc("GET /api/archive", handlers.Archive.ListArchives)
		mux.HandleFunc("POST /api/archive/trigger", handlers.Archive.Trigger)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Second
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
