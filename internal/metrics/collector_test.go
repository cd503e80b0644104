package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorToolCalls(t *testing.T) {
	c := NewCollector()
	c.RecordToolCall("getBestMove", "success", 10*time.Millisecond)
	c.RecordToolCall("getBestMove", "error", 30*time.Millisecond)
	c.RecordToolCall("getBestMove", "rate_limited", 0)

	stats := c.GetStats()
	tools := stats["tools"].(map[string]interface{})
	tool := tools["getBestMove"].(map[string]interface{})
	assert.Equal(t, int64(3), tool["calls"])
	assert.Equal(t, int64(1), tool["errors"])
	assert.InDelta(t, 1.0/3.0, tool["error_rate"], 1e-9)
	assert.Equal(t, int64(13), tool["avg_duration_ms"])

	limits := stats["rate_limits"].(map[string]interface{})
	assert.Equal(t, int64(1), limits["hits"])
	assert.Equal(t, int64(3), limits["total"])
}

func TestCollectorObserveSearch(t *testing.T) {
	c := NewCollector()
	c.ObserveSearch("hard", "full", 100, 20, 8, time.Millisecond)
	c.ObserveSearch("hard", "full", 50, 10, 5, time.Millisecond)
	c.ObserveSearch("medium", "blunder", 1, 0, 0, time.Microsecond)

	stats := c.GetStats()
	assert.Equal(t, int64(3), stats["total_moves"])

	search := stats["search"].(map[string]interface{})
	hard := search["hard"].(map[string]interface{})
	assert.Equal(t, int64(2), hard["moves"])
	assert.Equal(t, int64(150), hard["nodes_evaluated"])
	assert.Equal(t, int64(30), hard["branches_pruned"])
	assert.Equal(t, 75.0, hard["avg_nodes"])
	assert.Equal(t, 8, hard["max_depth_reached"])

	last := hard["last"].(map[string]interface{})
	assert.Equal(t, 50, last["nodes_evaluated"])
	assert.Equal(t, 5, last["max_depth_reached"])

	medium := search["medium"].(map[string]interface{})
	strategies := medium["strategies"].(map[string]int64)
	assert.Equal(t, int64(1), strategies["blunder"])
}

func TestCollectorDurationWindow(t *testing.T) {
	c := NewCollector()
	for i := 0; i < durationWindow+20; i++ {
		c.RecordToolCall("health", "success", time.Millisecond)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	require.Len(t, c.toolDurations["health"], durationWindow)
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector()
	c.RecordToolCall("health", "success", time.Millisecond)
	c.ObserveSearch("easy", "random", 1, 0, 0, 0)

	c.Reset()

	stats := c.GetStats()
	assert.Empty(t, stats["tools"])
	assert.Empty(t, stats["search"])
	assert.Equal(t, int64(0), stats["total_moves"])
}
