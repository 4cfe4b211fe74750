// Package server is the headless HTTP + WebSocket API over the running bot.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alejandrodnm/edgebot/internal/server/handler"
	"github.com/alejandrodnm/edgebot/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates the handlers the server registers.
type Handlers struct {
	Health      *handler.HealthHandler
	Stats       *handler.StatsHandler
	Signals     *handler.SignalsHandler
	Trades      *handler.TradesHandler
	Bot         *handler.BotHandler
	Calibration *handler.CalibrationHandler
	Events      *handler.EventsHandler
}

// Server wraps the http.Server with route registration and middleware.
type Server struct {
	httpServer *http.Server
}

// NewServer registers all routes and builds the middleware chain.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/stats", handlers.Stats.GetStats)
	mux.HandleFunc("GET /api/signals", handlers.Signals.ListSignals)
	mux.HandleFunc("GET /api/trades", handlers.Trades.ListTrades)
	mux.HandleFunc("GET /api/equity-curve", handlers.Trades.GetEquityCurve)
	mux.HandleFunc("GET /api/calibration", handlers.Calibration.GetCalibration)
	mux.HandleFunc("GET /api/events", handlers.Events.ListEvents)

	mux.HandleFunc("POST /api/run-scan", handlers.Bot.RunScan)
	mux.HandleFunc("POST /api/settle-trades", handlers.Bot.SettleTrades)
	mux.HandleFunc("POST /api/simulate-trade", handlers.Bot.SimulateTrade)
	mux.HandleFunc("POST /api/bot/start", handlers.Bot.Start)
	mux.HandleFunc("POST /api/bot/stop", handlers.Bot.Stop)
	mux.HandleFunc("POST /api/bot/reset", handlers.Bot.Reset)

	if wsHub != nil {
		mux.HandleFunc("GET /ws/events", wsHub.HandleEvents)
	}

	var h http.Handler = mux
	h = loggingMiddleware(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start blocks serving requests until the server errors or is shut down.
func (s *Server) Start() error {
	slog.Info("server: starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// loggingMiddleware logs each request with its latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("server: request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// corsMiddleware sets CORS headers for the allowed origins. An empty list
// allows all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				allowed := len(allowedOrigins) == 0
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}
				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
