package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/config"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
)

// StatsRecorder receives cache hit/miss events and occupancy.
type StatsRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
	SetCacheStats(items, sizeBytes float64)
}

// Manager caches search results keyed by position. A nil or disabled
// Manager never stores anything.
type Manager[V any] struct {
	cache    *LRU[V]
	logger   logging.ContextLogger
	recorder StatsRecorder
	enabled  bool
	ttl      time.Duration
}

// NewManager creates a cache manager. recorder may be nil.
func NewManager[V any](cfg *config.CacheConfig, logger logging.ContextLogger, recorder StatsRecorder) *Manager[V] {
	if cfg == nil || !cfg.Enabled {
		return &Manager[V]{logger: logger}
	}

	return &Manager[V]{
		cache:    NewLRU[V](cfg.MaxItems, cfg.MaxSizeBytes),
		logger:   logger,
		recorder: recorder,
		enabled:  true,
		ttl:      time.Duration(cfg.TTLSeconds) * time.Second,
	}
}

// Key derives a stable cache key from a compact board layout and the side
// to move.
func (m *Manager[V]) Key(board, player string) string {
	data, _ := json.Marshal(struct {
		Board  string `json:"board"`
		Player string `json:"player"`
	}{board, player})
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns a cached value if present and not expired.
func (m *Manager[V]) Get(key string) (V, bool) {
	var zero V
	if m == nil || !m.enabled {
		return zero, false
	}

	val, storedAt, ok := m.cache.Get(key)
	if ok && m.ttl > 0 && time.Since(storedAt) > m.ttl {
		m.cache.Delete(key)
		m.logger.Debug("Cache entry expired", "key", key, "age", time.Since(storedAt))
		ok = false
	}

	if m.recorder != nil {
		if ok {
			m.recorder.RecordCacheHit()
		} else {
			m.recorder.RecordCacheMiss()
		}
	}
	if !ok {
		return zero, false
	}
	return val, true
}

// Put stores value under key.
func (m *Manager[V]) Put(key string, value V) {
	if m == nil || !m.enabled {
		return
	}

	size := EstimateSize(value)
	m.cache.Put(key, value, size)
	if m.recorder != nil {
		stats := m.cache.Stats()
		m.recorder.SetCacheStats(float64(stats.Items), float64(stats.Size))
	}
	m.logger.Debug("Cached search result", "key", key, "size", size)
}

func (m *Manager[V]) Stats() Stats {
	if m == nil || !m.enabled {
		return Stats{}
	}
	return m.cache.Stats()
}

func (m *Manager[V]) Clear() {
	if m == nil || !m.enabled {
		return
	}
	m.cache.Clear()
	if m.recorder != nil {
		m.recorder.SetCacheStats(0, 0)
	}
}

func (m *Manager[V]) IsEnabled() bool {
	return m != nil && m.enabled
}

// EstimateSize approximates the memory held by v from its JSON encoding.
func EstimateSize(v interface{}) int64 {
	data, err := json.Marshal(v)
	if err != nil {
		return 1024
	}
	return int64(len(data))
}
