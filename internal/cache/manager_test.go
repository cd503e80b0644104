package cache

import (
	"testing"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/config"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	Move  int `json:"move"`
	Score int `json:"score"`
}

type recorder struct {
	hits, misses int
	items, size  float64
}

func (r *recorder) RecordCacheHit()  { r.hits++ }
func (r *recorder) RecordCacheMiss() { r.misses++ }
func (r *recorder) SetCacheStats(items, sizeBytes float64) {
	r.items, r.size = items, sizeBytes
}

func enabledConfig() *config.CacheConfig {
	return &config.CacheConfig{
		Enabled:      true,
		MaxItems:     10,
		MaxSizeBytes: 1024,
		TTLSeconds:   60,
	}
}

func TestManager_Key(t *testing.T) {
	manager := NewManager[result](enabledConfig(), logging.NewNopLogger(), nil)

	key1 := manager.Key("XX-OO----", "X")
	assert.Len(t, key1, 64)
	assert.Equal(t, key1, manager.Key("XX-OO----", "X"))
	assert.NotEqual(t, key1, manager.Key("XX-OO----", "O"))
	assert.NotEqual(t, key1, manager.Key("XX-OO---X", "X"))
}

func TestManager_GetPut(t *testing.T) {
	rec := &recorder{}
	manager := NewManager[result](enabledConfig(), logging.NewNopLogger(), rec)

	key := manager.Key("---------", "O")
	manager.Put(key, result{Move: 4, Score: 0})

	got, ok := manager.Get(key)
	require.True(t, ok)
	assert.Equal(t, result{Move: 4, Score: 0}, got)

	_, ok = manager.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, float64(1), rec.items)
	assert.Greater(t, rec.size, float64(0))
}

func TestManager_TTL(t *testing.T) {
	cfg := enabledConfig()
	cfg.TTLSeconds = 1
	manager := NewManager[string](cfg, logging.NewNopLogger(), nil)

	manager.Put("ttl", "value")
	got, ok := manager.Get("ttl")
	require.True(t, ok)
	assert.Equal(t, "value", got)

	time.Sleep(1100 * time.Millisecond)

	_, ok = manager.Get("ttl")
	assert.False(t, ok)
	assert.Equal(t, 0, manager.Stats().Items)
}

func TestManager_Disabled(t *testing.T) {
	for name, cfg := range map[string]*config.CacheConfig{
		"nil config": nil,
		"disabled":   {Enabled: false, MaxItems: 10},
	} {
		t.Run(name, func(t *testing.T) {
			manager := NewManager[string](cfg, logging.NewNopLogger(), nil)
			assert.False(t, manager.IsEnabled())

			manager.Put("k", "v")
			_, ok := manager.Get("k")
			assert.False(t, ok)
			assert.Equal(t, Stats{}, manager.Stats())
		})
	}

	var nilManager *Manager[string]
	_, ok := nilManager.Get("k")
	assert.False(t, ok)
	assert.False(t, nilManager.IsEnabled())
}

func TestManager_Clear(t *testing.T) {
	rec := &recorder{}
	manager := NewManager[int](enabledConfig(), logging.NewNopLogger(), rec)
	manager.Put("a", 1)
	manager.Put("b", 2)

	manager.Clear()

	assert.Equal(t, 0, manager.Stats().Items)
	assert.Equal(t, float64(0), rec.items)
}

func TestEstimateSize(t *testing.T) {
	assert.Equal(t, int64(len(`{"move":4,"score":0}`)), EstimateSize(result{Move: 4}))
	assert.Equal(t, int64(1024), EstimateSize(make(chan int)))
}
