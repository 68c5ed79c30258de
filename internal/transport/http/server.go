// Package http provides the HTTP transport layer for flashline.
//
// Routes (Go 1.22+ method-qualified patterns):
//
//	GET    /health
//	GET    /stats
//	GET    /metrics
//	POST   /messages
//	GET    /messages
//	DELETE /messages
//	POST   /export
//	GET    /presets
//	GET    /ws
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sneh-joshi/flashline/internal/bar"
	"github.com/sneh-joshi/flashline/internal/config"
	"github.com/sneh-joshi/flashline/internal/metrics"
	transportws "github.com/sneh-joshi/flashline/internal/transport/websocket"
)

// Server wraps the stdlib HTTP server with flashline route wiring.
type Server struct {
	inner *http.Server
}

// New builds a Server around a Bar.
// The caller is responsible for calling ListenAndServe / Shutdown.
func New(b *bar.Bar, cfg *config.Config, reg *metrics.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{bar: b}
	ws := &transportws.Handler{Bar: b, Logger: logger}

	mux := http.NewServeMux()

	// Health and stats
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /stats", h.stats)

	// Messages
	mux.HandleFunc("POST /messages", h.submitMessage)
	mux.HandleFunc("GET /messages", h.listMessages)
	mux.HandleFunc("DELETE /messages", h.deleteAll)

	// Export
	mux.HandleFunc("POST /export", h.exportBuffer)

	// Presets
	mux.HandleFunc("GET /presets", h.listPresets)

	// WebSocket event stream
	mux.Handle("GET /ws", ws)

	// Metrics (Prometheus text format)
	if reg != nil {
		mux.Handle("GET /metrics", reg.Handler())
	}

	// Build middleware chain: CORS → body limit → logging → auth → rate-limit
	rps := float64(cfg.Submitters.MaxRate)
	burst := cfg.Submitters.Burst

	var handler http.Handler = mux
	handler = chain(handler,
		CORSMiddleware,
		MaxBodyMiddleware,
		LoggingMiddleware(logger, reg),
		AuthMiddleware(cfg.Auth.APIKey, cfg.Auth.Enabled),
		RateLimitMiddleware(rps, burst),
	)

	return &Server{
		inner: &http.Server{
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Handler returns the composed http.Handler (useful for testing).
func (s *Server) Handler() http.Handler { return s.inner.Handler }

// ListenAndServe starts the server on the given address (e.g. ":8080").
// It returns when the server stops or encounters an error.
func (s *Server) ListenAndServe(addr string) error {
	s.inner.Addr = addr
	return s.inner.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting up to ctx's deadline for
// in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
