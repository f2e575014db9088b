package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmdig/llmdig/internal/cache"
)

// ============================================================================
// Basic operations
// ============================================================================

func TestCache_SetGet(t *testing.T) {
	c := cache.New(100, time.Minute)
	c.Set("what is love", "baby don't hurt me")

	got, ok := c.Get("what is love")
	require.True(t, ok)
	assert.Equal(t, "baby don't hurt me", got)
	assert.Equal(t, 1, c.Len())
}

func TestCache_MissingKey(t *testing.T) {
	c := cache.New(100, time.Minute)
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := cache.New(100, time.Minute)
	c.SetWithTTL("k", "v", 40*time.Millisecond)

	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry must be removed on lookup")
}

func TestCache_CleanupExpired(t *testing.T) {
	c := cache.New(100, time.Minute)
	c.SetWithTTL("a", "1", 20*time.Millisecond)
	c.SetWithTTL("b", "2", 20*time.Millisecond)
	c.SetWithTTL("c", "3", time.Minute)

	time.Sleep(40 * time.Millisecond)
	removed := c.CleanupExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
}

// ============================================================================
// Eviction
// ============================================================================

func TestCache_EvictionBound(t *testing.T) {
	const maxEntries = 10
	c := cache.New(maxEntries, time.Minute)

	for i := range maxEntries + 1 {
		c.Set(fmt.Sprintf("key-%d", i), "v")
	}
	assert.LessOrEqual(t, c.Len(), maxEntries)
}

func TestCache_EvictionKeepsRecentlyAccessed(t *testing.T) {
	const maxEntries = 10
	c := cache.New(maxEntries, time.Minute)

	for i := range maxEntries {
		c.Set(fmt.Sprintf("key-%d", i), "v")
	}
	// Touch the second half so it is the most recently accessed.
	for i := maxEntries / 2; i < maxEntries; i++ {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
	}

	// Overflow: evicts down to half capacity, keeping the touched keys.
	c.Set("overflow", "v")

	for i := maxEntries / 2; i < maxEntries; i++ {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok, "recently accessed key-%d must survive", i)
	}
	for i := range maxEntries / 2 {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		assert.False(t, ok, "cold key-%d must be evicted", i)
	}
	_, ok := c.Get("overflow")
	assert.True(t, ok)
}

func TestCache_EvictionPrefersExpired(t *testing.T) {
	c := cache.New(2, time.Minute)
	c.SetWithTTL("stale", "v", 20*time.Millisecond)
	c.Set("fresh", "v")

	time.Sleep(40 * time.Millisecond)
	c.Set("new", "v")

	_, ok := c.Get("fresh")
	assert.True(t, ok, "unexpired entry must survive when expired ones can go")
	_, ok = c.Get("new")
	assert.True(t, ok)
}

// ============================================================================
// Single-flight
// ============================================================================

func TestCache_GetOrBuild_SingleFlight(t *testing.T) {
	c := cache.New(100, time.Minute)

	var builds atomic.Int32
	build := func() (string, error) {
		builds.Add(1)
		time.Sleep(100 * time.Millisecond)
		return "the answer", nil
	}

	const n = 20
	var wg sync.WaitGroup
	results := make([]string, n)
	start := make(chan struct{})

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, _, err := c.GetOrBuild(context.Background(), "novel", build)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load(), "builder must run exactly once")
	for _, r := range results {
		assert.Equal(t, "the answer", r)
	}

	// The result must now be cached.
	v, ok := c.Get("novel")
	require.True(t, ok)
	assert.Equal(t, "the answer", v)
}

func TestCache_GetOrBuild_CacheHitSkipsBuilder(t *testing.T) {
	c := cache.New(100, time.Minute)
	c.Set("k", "cached")

	v, fromCache, err := c.GetOrBuild(context.Background(), "k", func() (string, error) {
		t.Fatal("builder must not run on a hit")
		return "", nil
	})
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, "cached", v)
}

func TestCache_GetOrBuild_FailureNotCached(t *testing.T) {
	c := cache.New(100, time.Minute)

	boom := errors.New("backend down")
	var builds atomic.Int32
	failing := func() (string, error) {
		builds.Add(1)
		return "", boom
	}

	_, _, err := c.GetOrBuild(context.Background(), "k", failing)
	assert.ErrorIs(t, err, boom)

	_, ok := c.Get("k")
	assert.False(t, ok, "failures are never cached")

	// A later request dispatches again.
	_, _, err = c.GetOrBuild(context.Background(), "k", failing)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), builds.Load())
}

func TestCache_GetOrBuild_WaiterHonorsContext(t *testing.T) {
	c := cache.New(100, time.Minute)

	started := make(chan struct{})
	go func() {
		_, _, _ = c.GetOrBuild(context.Background(), "slow", func() (string, error) {
			close(started)
			time.Sleep(300 * time.Millisecond)
			return "late", nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, _, err := c.GetOrBuild(ctx, "slow", func() (string, error) {
		t.Fatal("joining caller must not build")
		return "", nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ============================================================================
// Stats
// ============================================================================

func TestCache_Snapshot(t *testing.T) {
	c := cache.New(50, time.Minute)
	c.Set("a", "1")
	c.Get("a")
	c.Get("missing")

	s := c.Snapshot()
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, 50, s.MaxEntries)
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.InDelta(t, 50.0, s.HitRate(), 0.01)
}
