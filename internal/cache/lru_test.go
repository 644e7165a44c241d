package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *clock) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_SlidingTTL(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", 1)

	clk.t = clk.t.Add(50 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clk.t = clk.t.Add(50 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok, "Get refreshes the deadline")

	clk.t = clk.t.Add(61 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLRUCache_GetOrCreate(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	calls := 0
	create := func() int { calls++; return 42 }

	v, created := c.GetOrCreate("k", create)
	assert.True(t, created)
	assert.Equal(t, 42, v)

	v, created = c.GetOrCreate("k", create)
	assert.False(t, created)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestLRUCache_RangeAndClean(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("old", 1)
	clk.t = clk.t.Add(40 * time.Second)
	c.Set("new", 2)
	clk.t = clk.t.Add(30 * time.Second)

	seen := map[string]int{}
	c.Range(func(k string, v int) bool { seen[k] = v; return true })
	assert.Equal(t, map[string]int{"new": 2}, seen)

	m := NewManager(nil)
	m.Register(c)
	assert.Equal(t, 1, m.CleanNow())
	assert.Equal(t, 1, c.Size())
}
