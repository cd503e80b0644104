package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusOnce     sync.Once
	prometheusInstance *PrometheusCollector
)

// PrometheusCollector provides Prometheus metrics for the tic-tac-toe server.
type PrometheusCollector struct {
	// MCP Tool metrics
	toolCallsTotal   *prometheus.CounterVec
	toolErrorsTotal  *prometheus.CounterVec
	toolDurationSecs *prometheus.HistogramVec

	// Rate limit metrics
	rateLimitHitsTotal   *prometheus.CounterVec
	rateLimitChecksTotal prometheus.Counter

	// Search metrics
	movesTotal          *prometheus.CounterVec
	searchNodes         *prometheus.HistogramVec
	searchPruned        *prometheus.HistogramVec
	searchDurationSecs  *prometheus.HistogramVec
	engineHealthChecks  *prometheus.CounterVec
	gamesCompletedTotal *prometheus.CounterVec

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	activeSessions prometheus.Gauge

	// Cache metrics
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
	cacheSize        prometheus.Gauge
	cacheItems       prometheus.Gauge
}

// NewPrometheusCollector returns the process-wide collector, registering it
// with the default registry on first use.
func NewPrometheusCollector() *PrometheusCollector {
	prometheusOnce.Do(func() {
		prometheusInstance = &PrometheusCollector{
			toolCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tictactoe_mcp_tool_calls_total",
					Help: "Total number of MCP tool calls",
				},
				[]string{"tool", "status"},
			),
			toolErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tictactoe_mcp_tool_errors_total",
					Help: "Total number of MCP tool errors",
				},
				[]string{"tool", "error_type"},
			),
			toolDurationSecs: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tictactoe_mcp_tool_duration_seconds",
					Help:    "Duration of MCP tool calls in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),

			rateLimitHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tictactoe_mcp_rate_limit_hits_total",
					Help: "Total number of rate limit hits",
				},
				[]string{"client", "tool"},
			),
			rateLimitChecksTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "tictactoe_mcp_rate_limit_checks_total",
					Help: "Total number of rate limit checks",
				},
			),

			movesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tictactoe_engine_moves_total",
					Help: "Total number of moves chosen, by difficulty and strategy",
				},
				[]string{"difficulty", "strategy"},
			),
			searchNodes: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tictactoe_engine_search_nodes",
					Help:    "Positions evaluated per move search",
					Buckets: prometheus.ExponentialBuckets(1, 4, 9),
				},
				[]string{"difficulty"},
			),
			searchPruned: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tictactoe_engine_search_pruned_branches",
					Help:    "Branches cut by alpha-beta per move search",
					Buckets: prometheus.ExponentialBuckets(1, 4, 8),
				},
				[]string{"difficulty"},
			),
			searchDurationSecs: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tictactoe_engine_search_duration_seconds",
					Help:    "Duration of move searches in seconds",
					Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
				},
				[]string{"difficulty"},
			),
			engineHealthChecks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tictactoe_engine_health_checks_total",
					Help: "Total number of engine self-checks",
				},
				[]string{"status"},
			),
			gamesCompletedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tictactoe_games_completed_total",
					Help: "Total number of finished games, by result",
				},
				[]string{"result"},
			),

			httpRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tictactoe_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			httpRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tictactoe_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),

			activeSessions: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "tictactoe_active_sessions",
					Help: "Number of open websocket play sessions",
				},
			),

			cacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "tictactoe_cache_hits_total",
					Help: "Total number of search cache hits",
				},
			),
			cacheMissesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "tictactoe_cache_misses_total",
					Help: "Total number of search cache misses",
				},
			),
			cacheSize: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "tictactoe_cache_size_bytes",
					Help: "Current cache size in bytes",
				},
			),
			cacheItems: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "tictactoe_cache_items",
					Help: "Current number of items in cache",
				},
			),
		}
	})
	return prometheusInstance
}

// RecordToolCall records a tool call metric.
func (p *PrometheusCollector) RecordToolCall(tool, status string, durationSecs float64) {
	p.toolCallsTotal.WithLabelValues(tool, status).Inc()
	p.toolDurationSecs.WithLabelValues(tool).Observe(durationSecs)

	if status == "error" {
		p.toolErrorsTotal.WithLabelValues(tool, "general").Inc()
	}
}

// RecordRateLimit records a rate limit check.
func (p *PrometheusCollector) RecordRateLimit(client, tool string, hit bool) {
	p.rateLimitChecksTotal.Inc()
	if hit {
		p.rateLimitHitsTotal.WithLabelValues(client, tool).Inc()
	}
}

// ObserveSearch records one move decision.
func (p *PrometheusCollector) ObserveSearch(difficulty, strategy string, nodes, pruned, _ int, d time.Duration) {
	p.movesTotal.WithLabelValues(difficulty, strategy).Inc()
	p.searchNodes.WithLabelValues(difficulty).Observe(float64(nodes))
	p.searchPruned.WithLabelValues(difficulty).Observe(float64(pruned))
	p.searchDurationSecs.WithLabelValues(difficulty).Observe(d.Seconds())
}

// RecordEngineHealthCheck records a self-check result.
func (p *PrometheusCollector) RecordEngineHealthCheck(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.engineHealthChecks.WithLabelValues(status).Inc()
}

// RecordGameResult counts a finished game ("X", "O" or "DRAW").
func (p *PrometheusCollector) RecordGameResult(result string) {
	p.gamesCompletedTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func (p *PrometheusCollector) RecordHTTPRequest(method, path, status string, durationSecs float64) {
	p.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	p.httpRequestDuration.WithLabelValues(method, path).Observe(durationSecs)
}

func (p *PrometheusCollector) SessionOpened() { p.activeSessions.Inc() }
func (p *PrometheusCollector) SessionClosed() { p.activeSessions.Dec() }

func (p *PrometheusCollector) RecordCacheHit() {
	p.cacheHitsTotal.Inc()
}

func (p *PrometheusCollector) RecordCacheMiss() {
	p.cacheMissesTotal.Inc()
}

// SetCacheStats sets the current cache occupancy.
func (p *PrometheusCollector) SetCacheStats(items, sizeBytes float64) {
	p.cacheItems.Set(items)
	p.cacheSize.Set(sizeBytes)
}
