package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(maxKeys int) (*MemoryLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(maxKeys)
	l.now = clock.Now
	return l, clock
}

func TestMemoryLimiterRejectsOverLimit(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(0)

	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "10.0.0.1", "/api/admin/login", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "attempt %d", i+1)
	}

	clock.Advance(20 * time.Second)
	d, err := l.Allow(ctx, "10.0.0.1", "/api/admin/login", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40*time.Second, d.RetryAfter)
	assert.Equal(t, 40, d.RetryAfterSeconds())

	clock.Advance(time.Minute)
	d, err = l.Allow(ctx, "10.0.0.1", "/api/admin/login", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(0)

	d, _ := l.Allow(ctx, "a", "/login", 1, time.Minute)
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, "a", "/login", 1, time.Minute)
	assert.False(t, d.Allowed)

	d, _ = l.Allow(ctx, "b", "/login", 1, time.Minute)
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, "a", "/lookup", 1, time.Minute)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterRetryAfterRoundsUp(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(0)

	_, _ = l.Allow(ctx, "a", "/r", 1, 10*time.Second)
	clock.Advance(9*time.Second + 900*time.Millisecond)
	d, _ := l.Allow(ctx, "a", "/r", 1, 10*time.Second)
	require.False(t, d.Allowed)
	assert.Equal(t, time.Second, d.RetryAfter)

	clock.Advance(100 * time.Millisecond)
	d, _ = l.Allow(ctx, "a", "/r", 1, 10*time.Second)
	assert.False(t, d.Allowed, "window resets only once now is past resetAt")
	assert.Equal(t, time.Second, d.RetryAfter)
}

func TestMemoryLimiterConcurrentHitsNeverExceedLimit(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(0)

	const limit = 10
	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(ctx, "203.0.113.7", "/api/employees/login", limit, time.Hour)
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(limit), allowed.Load())
}

func TestMemoryLimiterBoundsKeys(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		_, _ = l.Allow(ctx, fmt.Sprintf("c%d", i), "/r", 5, time.Duration(i+1)*time.Minute)
	}
	require.Equal(t, 3, l.Len())

	// c0 is hit again, leaving c1 as the least recently used window.
	_, _ = l.Allow(ctx, "c0", "/r", 5, time.Minute)
	_, _ = l.Allow(ctx, "c3", "/r", 5, time.Minute)
	assert.Equal(t, 3, l.Len())
	assert.False(t, l.tracks("c1", "/r"), "least recently hit window is evicted")
	assert.True(t, l.tracks("c0", "/r"))

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 3, l.Sweep())
	assert.Equal(t, 0, l.Len())
}

func TestMemoryLimiterThrottledClientSurvivesKeyChurn(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(100)

	for i := 0; i < 2; i++ {
		_, _ = l.Allow(ctx, "203.0.113.7", "/api/admin/login", 2, time.Minute)
	}
	for i := 0; i < 1000; i++ {
		_, _ = l.Allow(ctx, fmt.Sprintf("10.0.%d.%d", i/256, i%256), "/api/admin/login", 2, time.Minute)
		if i%50 == 0 {
			d, _ := l.Allow(ctx, "203.0.113.7", "/api/admin/login", 2, time.Minute)
			require.False(t, d.Allowed, "iteration %d", i)
		}
	}
	assert.Equal(t, 100, l.Len())
	assert.Equal(t, l.Len(), l.recency.Len())
}

func TestMemoryLimiterSweepKeepsLiveWindows(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(0)

	_, _ = l.Allow(ctx, "a", "/r", 1, time.Minute)
	_, _ = l.Allow(ctx, "b", "/r", 1, time.Hour)
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, l.Sweep())
	assert.True(t, l.tracks("b", "/r"))
	assert.Equal(t, 1, l.recency.Len())
}

func (l *MemoryLimiter) tracks(clientAddr, routeKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.windows[key(clientAddr, routeKey)]
	return ok
}
