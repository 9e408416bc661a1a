package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemoryCache() (*MemoryCache, *clock) {
	clk := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache()
	c.now = clk.Now
	return c, clk
}

func TestMemoryCache_GetSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, clk := newTestMemoryCache()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v1"), time.Hour))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, c.Set(ctx, "k", []byte("v2"), time.Hour))
	got, _, _ = c.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), got, "entries are overwritten whole")

	clk.Advance(59 * time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.True(t, ok)

	clk.Advance(time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok, "expires after ttl")
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newTestMemoryCache()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryCache_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newTestMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok, _ := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_Lock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, clk := newTestMemoryCache()

	ok, err := c.AcquireLock(ctx, "price-check", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = c.AcquireLock(ctx, "price-check", time.Minute)
	assert.False(t, ok, "held lock cannot be taken again")

	clk.Advance(time.Minute)
	ok, _ = c.AcquireLock(ctx, "price-check", time.Minute)
	assert.True(t, ok, "expired lock can be taken")

	require.NoError(t, c.ReleaseLock(ctx, "price-check"))
	ok, _ = c.AcquireLock(ctx, "price-check", time.Minute)
	assert.True(t, ok)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewMemoryCache()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "shared", []byte("v"), time.Hour)
			_, _, _ = c.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	got, ok, err := c.Get(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}
