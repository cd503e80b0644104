package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusCollectorSingleton(t *testing.T) {
	assert.Same(t, NewPrometheusCollector(), NewPrometheusCollector())
}

func TestPrometheusCollectorSearch(t *testing.T) {
	collector := NewPrometheusCollector()

	before := testutil.ToFloat64(collector.movesTotal.WithLabelValues("hard", "full"))
	collector.ObserveSearch("hard", "full", 1200, 300, 8, 2*time.Millisecond)
	collector.ObserveSearch("hard", "full", 10, 2, 3, time.Microsecond)

	assert.Equal(t, before+2, testutil.ToFloat64(collector.movesTotal.WithLabelValues("hard", "full")))
}

func TestPrometheusCollectorCounters(t *testing.T) {
	collector := NewPrometheusCollector()

	hits := testutil.ToFloat64(collector.cacheHitsTotal)
	misses := testutil.ToFloat64(collector.cacheMissesTotal)
	collector.RecordCacheHit()
	collector.RecordCacheMiss()
	collector.RecordCacheMiss()
	assert.Equal(t, hits+1, testutil.ToFloat64(collector.cacheHitsTotal))
	assert.Equal(t, misses+2, testutil.ToFloat64(collector.cacheMissesTotal))

	collector.SetCacheStats(3, 512)
	assert.Equal(t, float64(3), testutil.ToFloat64(collector.cacheItems))
	assert.Equal(t, float64(512), testutil.ToFloat64(collector.cacheSize))

	checks := testutil.ToFloat64(collector.rateLimitChecksTotal)
	collector.RecordRateLimit("client1", "getBestMove", false)
	collector.RecordRateLimit("client1", "getBestMove", true)
	assert.Equal(t, checks+2, testutil.ToFloat64(collector.rateLimitChecksTotal))

	sessions := testutil.ToFloat64(collector.activeSessions)
	collector.SessionOpened()
	collector.SessionOpened()
	collector.SessionClosed()
	assert.Equal(t, sessions+1, testutil.ToFloat64(collector.activeSessions))
	collector.SessionClosed()

	errs := testutil.ToFloat64(collector.toolErrorsTotal.WithLabelValues("evaluatePosition", "general"))
	collector.RecordToolCall("evaluatePosition", "success", 0.01)
	collector.RecordToolCall("evaluatePosition", "error", 0.01)
	assert.Equal(t, errs+1, testutil.ToFloat64(collector.toolErrorsTotal.WithLabelValues("evaluatePosition", "general")))

	draws := testutil.ToFloat64(collector.gamesCompletedTotal.WithLabelValues("DRAW"))
	collector.RecordGameResult("DRAW")
	assert.Equal(t, draws+1, testutil.ToFloat64(collector.gamesCompletedTotal.WithLabelValues("DRAW")))

	collector.RecordEngineHealthCheck(true)
	collector.RecordHTTPRequest("GET", "/health", "200", 0.01)
}
