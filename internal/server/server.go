// Package server exposes the market ledger over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openforecast/marketd/internal/server/handler"
	"github.com/openforecast/marketd/internal/server/middleware"
	"github.com/openforecast/marketd/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKeyHash  string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health   *handler.HealthHandler
	Markets  *handler.MarketHandler
	Disputes *handler.DisputeHandler
	Admins   *handler.AdminHandler
	Treasury *handler.TreasuryHandler
}

// protectedPrefixes are the path prefixes that require operator API-key auth
// when a key hash is configured. Trading endpoints stay open; the ledger's
// own admin checks guard the privileged operations inside them.
var protectedPrefixes = []string{
	"/api/admins",
	"/api/treasury",
}

// Server is the HTTP + WebSocket API server for the market ledger.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Market lifecycle.
	mux.HandleFunc("POST /api/markets", handlers.Markets.CreateMarket)
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("POST /api/markets/{id}/resolve", handlers.Markets.ResolveMarket)

	// Pricing.
	mux.HandleFunc("GET /api/markets/{id}/odds", handlers.Markets.GetOdds)
	mux.HandleFunc("GET /api/markets/{id}/impact", handlers.Markets.GetImpact)

	// Positions and rewards.
	mux.HandleFunc("POST /api/markets/{id}/position", handlers.Markets.BuyPosition)
	mux.HandleFunc("GET /api/markets/{id}/position", handlers.Markets.GetPosition)
	mux.HandleFunc("GET /api/markets/{id}/positions", handlers.Markets.ListPositions)
	mux.HandleFunc("POST /api/markets/{id}/claim", handlers.Markets.ClaimRewards)

	// Disputes.
	mux.HandleFunc("POST /api/markets/{id}/disputes", handlers.Disputes.OpenDispute)
	mux.HandleFunc("GET /api/markets/{id}/disputes", handlers.Disputes.ListDisputes)
	mux.HandleFunc("POST /api/markets/{id}/disputes/{index}/resolve", handlers.Disputes.ResolveDispute)

	// Event log.
	mux.HandleFunc("GET /api/markets/{id}/events", handlers.Markets.ListEvents)

	// Admin set.
	mux.HandleFunc("GET /api/admins", handlers.Admins.ListAdmins)
	mux.HandleFunc("POST /api/admins", handlers.Admins.AddAdmin)
	mux.HandleFunc("DELETE /api/admins/{identity}", handlers.Admins.RemoveAdmin)

	// Treasury.
	mux.HandleFunc("POST /api/treasury/deposit", handlers.Treasury.Deposit)
	mux.HandleFunc("GET /api/treasury/balance", handlers.Treasury.Balance)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKeyHash, protectedPrefixes)(h)
	h = middleware.Logging(logger)(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Handler returns the fully assembled HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
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

// corsMiddleware returns middleware that sets CORS headers for the allowed
// origins. If no origins are specified, it defaults to allowing all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0 // allow all if none specified
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-User-ID")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			// Handle preflight requests.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
