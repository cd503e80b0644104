package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/cache"
	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
	"github.com/dmmcquay/tictactoe-mcp/internal/health"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	"github.com/dmmcquay/tictactoe-mcp/internal/metrics"
	"github.com/dmmcquay/tictactoe-mcp/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheStats is implemented by the engine's result cache.
type CacheStats interface {
	Stats() cache.Stats
}

// Deps are the components the HTTP server exposes. Stats, Cache and
// Limiter may be nil.
type Deps struct {
	Engine  engine.EngineInterface
	Checker *health.Checker
	Stats   *metrics.Collector
	Cache   CacheStats
	Limiter *ratelimit.Limiter
	Version string
}

// HTTPServer serves the JSON API, live play over websocket, health checks
// and Prometheus metrics.
type HTTPServer struct {
	server     *http.Server
	listener   net.Listener
	logger     logging.ContextLogger
	deps       Deps
	prometheus *metrics.PrometheusCollector
}

// NewHTTPServer builds the router. Nothing listens until Start.
func NewHTTPServer(addr string, logger logging.ContextLogger, deps Deps) *HTTPServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &HTTPServer{
		logger:     logger,
		deps:       deps,
		prometheus: metrics.NewPrometheusCollector(),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(PrometheusMiddleware(s.prometheus))

	r.Get("/", s.handleRoot)
	if s.deps.Checker != nil {
		r.Get("/health", s.deps.Checker.LivenessHandler())
		r.Get("/ready", s.deps.Checker.ReadinessHandler())
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/ai", func(r chi.Router) {
		r.Use(RateLimitMiddleware(s.deps.Limiter))
		r.Post("/move", s.handleMove)
		r.Post("/evaluate", s.handleEvaluate)
		r.Get("/algorithm", s.handleAlgorithm)
		r.Get("/stats", s.handleStats)
	})
	r.Get("/ws/play", s.handlePlay)

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start binds the listen address and serves in the background.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	s.logger.Info("Starting HTTP server", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the HTTP server.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}
