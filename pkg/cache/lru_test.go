package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/membership/pkg/cache"
)

func TestLRUCache_Eviction(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	_, _ = c.Get("a") // "b" is now least recently used
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRUCache_TTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := cache.NewLRUCache[string, string](4,
		cache.WithTTL(time.Minute),
		cache.WithClock(func() time.Time { return now }),
	)

	c.Put("k", "v")
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_PutReplacesAndRemove(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[int, string](1)
	c.Put(1, "one")
	c.Put(1, "uno")

	v, _ := c.Get(1)
	assert.Equal(t, "uno", v)
	assert.True(t, c.Remove(1))
	assert.False(t, c.Remove(1))
}

func TestLRUCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[int, int](64)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := range 100 {
				c.Put(i*100+j, j)
				c.Get(i*100 + j)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 64)
}

func TestNewLRUCache_InvalidCapacity(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
}
