package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_BasicOperations(t *testing.T) {
	cache := NewLRU[string](3, 0)

	cache.Put("key1", "value1", 10)
	val, _, ok := cache.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", val)

	val, _, ok = cache.Get("nonexistent")
	assert.False(t, ok)
	assert.Empty(t, val)

	cache.Put("key2", "value2", 20)
	cache.Put("key3", "value3", 30)

	assert.Equal(t, 3, cache.Len())
	assert.Equal(t, int64(60), cache.Stats().Size)
}

func TestLRU_Eviction_ItemLimit(t *testing.T) {
	cache := NewLRU[string](3, 0)

	cache.Put("key1", "value1", 10)
	cache.Put("key2", "value2", 20)
	cache.Put("key3", "value3", 30)

	// Touch key1 so key2 becomes least recently used.
	_, _, _ = cache.Get("key1")
	cache.Put("key4", "value4", 40)

	_, _, ok := cache.Get("key2")
	assert.False(t, ok, "key2 should have been evicted")
	for _, k := range []string{"key1", "key3", "key4"} {
		_, _, ok = cache.Get(k)
		assert.True(t, ok, "%s should still exist", k)
	}
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestLRU_Eviction_SizeLimit(t *testing.T) {
	cache := NewLRU[string](0, 100)

	cache.Put("key1", "value1", 30)
	cache.Put("key2", "value2", 30)
	cache.Put("key3", "value3", 30)
	assert.Equal(t, int64(90), cache.Stats().Size)

	cache.Put("key4", "value4", 40)

	assert.Equal(t, int64(100), cache.Stats().Size)
	_, _, ok := cache.Get("key1")
	assert.False(t, ok, "key1 should have been evicted")
}

func TestLRU_OversizedSingleEntryKept(t *testing.T) {
	cache := NewLRU[string](0, 10)

	cache.Put("big", "value", 50)

	_, _, ok := cache.Get("big")
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Len())
}

func TestLRU_Update(t *testing.T) {
	cache := NewLRU[int](3, 0)

	cache.Put("key1", 1, 10)
	cache.Put("key2", 2, 20)
	cache.Put("key1", 100, 15)

	val, _, ok := cache.Get("key1")
	require.True(t, ok)
	assert.Equal(t, 100, val)
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, int64(35), cache.Stats().Size)
}

func TestLRU_DeleteAndClear(t *testing.T) {
	cache := NewLRU[string](0, 0)
	cache.Put("a", "1", 5)
	cache.Put("b", "2", 5)

	assert.True(t, cache.Delete("a"))
	assert.False(t, cache.Delete("a"))
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, int64(5), cache.Stats().Size)

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, int64(0), cache.Stats().Size)
}

func TestLRU_Stats(t *testing.T) {
	cache := NewLRU[string](10, 0)
	cache.Put("a", "1", 1)

	_, _, _ = cache.Get("a")
	_, _, _ = cache.Get("a")
	_, _, _ = cache.Get("missing")

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	assert.Equal(t, 1, stats.Items)
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	cache := NewLRU[int](100, 0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d-%d", g, i%50)
				cache.Put(key, i, 1)
				_, _, _ = cache.Get(key)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), 100)
}
