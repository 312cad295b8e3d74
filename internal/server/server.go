package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/marketlens/internal/server/handler"
	"github.com/alanyoungcy/marketlens/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	RateLimit   float64 // requests per second per client; 0 disables
	RateBurst   int
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Metrics may be nil.
type Handlers struct {
	Health    *handler.HealthHandler
	Status    *handler.StatusHandler
	Markets   *handler.MarketHandler
	Arb       *handler.ArbHandler
	Elections *handler.ElectionHandler
	Metrics   http.Handler
}

// Server is the read-only HTTP API over the market and election services.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, per-client rate limiting).
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))

	var limiter *middleware.ClientLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewClientLimiter(cfg.RateLimit, cfg.RateBurst)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      Routes(cfg, handlers, limiter, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Routes builds the routed handler with its middleware chain. The election
// routes may wait on a soft-timed refresh, hence the long write timeout above.
func Routes(cfg Config, handlers Handlers, limiter *middleware.ClientLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Operational endpoints skip the rate limiter.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	if handlers.Metrics != nil {
		mux.Handle("GET /metrics", handlers.Metrics)
	}

	limited := middleware.RateLimit(limiter)

	// Market endpoints.
	mux.Handle("GET /api/markets/top", limited(http.HandlerFunc(handlers.Markets.TopMarkets)))
	mux.Handle("GET /api/markets/topic", limited(http.HandlerFunc(handlers.Markets.TopicMarkets)))
	mux.Handle("GET /api/markets/country/{name}", limited(http.HandlerFunc(handlers.Markets.CountryMarkets)))

	// Arbitrage endpoints.
	mux.Handle("GET /api/arbitrage", limited(http.HandlerFunc(handlers.Arb.List)))

	// Election endpoints.
	mux.Handle("GET /api/elections", limited(http.HandlerFunc(handlers.Elections.Live)))
	mux.Handle("GET /api/elections/{state}", limited(http.HandlerFunc(handlers.Elections.State)))

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return h
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
