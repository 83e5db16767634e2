package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/soltx/service/config"
	"github.com/brojonat/soltx/service/db"
	"github.com/brojonat/soltx/service/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TransactionStore is the read-only query surface the handlers need.
// *db.Store satisfies it.
type TransactionStore interface {
	GetTransactionBySignature(ctx context.Context, signature string) (*db.Transaction, error)
	ListTransactionsByDate(ctx context.Context, date time.Time) ([]*db.Transaction, error)
	ListLatestTransactions(ctx context.Context, limit int32) ([]*db.LatestTransaction, error)
	Ping(ctx context.Context) error
}

// Server represents the HTTP server for the transaction query service.
type Server struct {
	addr    string
	cfg     *config.Config
	store   TransactionStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, store TransactionStore, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		cfg:     cfg,
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// Handler builds the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Transaction query routes
	mux.Handle("GET /transactions/by-id/{signature}", s.instrument("transactions_by_id", handleGetTransactionBySignature(s.store, s.logger)))
	mux.Handle("GET /transactions/by-date/{date}", s.instrument("transactions_by_date", handleGetTransactionsByDate(s.store, s.logger)))
	mux.Handle("GET /transactions/latest", s.instrument("transactions_latest", handleGetLatestTransactions(s.store, s.logger)))

	// Liveness never touches the database; readiness borrows a pooled connection.
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /ready", handleReady(s.store, s.logger))

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	var handler http.Handler = mux
	if s.cfg != nil && s.cfg.QueryTimeout > 0 {
		handler = queryTimeoutMiddleware(s.cfg.QueryTimeout)(handler)
	}

	// Wrap mux with CORS middleware
	return corsMiddleware(handler)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	if s.metrics != nil {
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) instrument(name string, h http.Handler) http.Handler {
	if s.metrics == nil {
		return h
	}
	return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
}

// queryTimeoutMiddleware bounds every request's context, so waiting for a pooled
// connection and the query itself give up together once the deadline passes.
// Client disconnects cancel the same context.
func queryTimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
