package metrics

import (
	"sync"
	"time"
)

const durationWindow = 100

type searchStats struct {
	moves      int64
	nodes      int64
	pruned     int64
	maxDepth   int
	strategies map[string]int64
	durations  []time.Duration
	lastNodes  int
	lastPruned int
	lastDepth  int
}

// Collector keeps in-process counters that back the stats endpoints.
type Collector struct {
	mu sync.RWMutex

	// Tool metrics
	toolCalls     map[string]int64
	toolErrors    map[string]int64
	toolDurations map[string][]time.Duration

	// Rate limit metrics
	rateLimitHits  int64
	rateLimitTotal int64

	// Search metrics, keyed by difficulty
	searches map[string]*searchStats

	startedAt time.Time
}

func NewCollector() *Collector {
	return &Collector{
		toolCalls:     make(map[string]int64),
		toolErrors:    make(map[string]int64),
		toolDurations: make(map[string][]time.Duration),
		searches:      make(map[string]*searchStats),
		startedAt:     time.Now(),
	}
}

func appendWindow(ds []time.Duration, d time.Duration) []time.Duration {
	ds = append(ds, d)
	if len(ds) > durationWindow {
		ds = ds[1:]
	}
	return ds
}

func average(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total / time.Duration(len(ds))
}

// RecordToolCall records a tool call with its status and duration.
func (c *Collector) RecordToolCall(tool, status string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toolCalls[tool]++
	switch status {
	case "error":
		c.toolErrors[tool]++
	case "rate_limited":
		c.rateLimitHits++
	}
	c.rateLimitTotal++
	c.toolDurations[tool] = appendWindow(c.toolDurations[tool], duration)
}

// ObserveSearch records the metrics of one move decision.
func (c *Collector) ObserveSearch(difficulty, strategy string, nodes, pruned, maxDepth int, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.searches[difficulty]
	if !ok {
		s = &searchStats{strategies: make(map[string]int64)}
		c.searches[difficulty] = s
	}
	s.moves++
	s.nodes += int64(nodes)
	s.pruned += int64(pruned)
	s.maxDepth = max(s.maxDepth, maxDepth)
	s.strategies[strategy]++
	s.durations = appendWindow(s.durations, d)
	s.lastNodes, s.lastPruned, s.lastDepth = nodes, pruned, maxDepth
}

// GetStats returns current metrics statistics.
func (c *Collector) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make(map[string]interface{})

	toolStats := make(map[string]interface{})
	for tool, calls := range c.toolCalls {
		errors := c.toolErrors[tool]
		errorRate := float64(0)
		if calls > 0 {
			errorRate = float64(errors) / float64(calls)
		}
		toolStats[tool] = map[string]interface{}{
			"calls":           calls,
			"errors":          errors,
			"error_rate":      errorRate,
			"avg_duration_ms": average(c.toolDurations[tool]).Milliseconds(),
		}
	}
	stats["tools"] = toolStats

	searches := make(map[string]interface{})
	var totalMoves int64
	for difficulty, s := range c.searches {
		strategies := make(map[string]int64, len(s.strategies))
		for k, v := range s.strategies {
			strategies[k] = v
		}
		avgNodes, avgPruned := float64(0), float64(0)
		if s.moves > 0 {
			avgNodes = float64(s.nodes) / float64(s.moves)
			avgPruned = float64(s.pruned) / float64(s.moves)
		}
		searches[difficulty] = map[string]interface{}{
			"moves":             s.moves,
			"nodes_evaluated":   s.nodes,
			"branches_pruned":   s.pruned,
			"avg_nodes":         avgNodes,
			"avg_pruned":        avgPruned,
			"max_depth_reached": s.maxDepth,
			"strategies":        strategies,
			"avg_duration_us":   average(s.durations).Microseconds(),
			"last": map[string]interface{}{
				"nodes_evaluated":   s.lastNodes,
				"branches_pruned":   s.lastPruned,
				"max_depth_reached": s.lastDepth,
			},
		}
		totalMoves += s.moves
	}
	stats["search"] = searches
	stats["total_moves"] = totalMoves

	rateLimitRate := float64(0)
	if c.rateLimitTotal > 0 {
		rateLimitRate = float64(c.rateLimitHits) / float64(c.rateLimitTotal)
	}
	stats["rate_limits"] = map[string]interface{}{
		"hits":  c.rateLimitHits,
		"total": c.rateLimitTotal,
		"rate":  rateLimitRate,
	}
	stats["uptime_seconds"] = int64(time.Since(c.startedAt).Seconds())

	return stats
}

// Reset clears all metrics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toolCalls = make(map[string]int64)
	c.toolErrors = make(map[string]int64)
	c.toolDurations = make(map[string][]time.Duration)
	c.searches = make(map[string]*searchStats)
	c.rateLimitHits = 0
	c.rateLimitTotal = 0
}
