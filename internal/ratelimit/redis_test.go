package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redisTarget struct {
	client  *redis.Client
	advance func(time.Duration)
	server  *miniredis.Miniredis
}

// newRedisTarget uses an in-process server, or the live one named by
// RATE_LIMIT_TEST_REDIS_ADDR when set.
func newRedisTarget(t *testing.T) redisTarget {
	t.Helper()
	if addr := os.Getenv("RATE_LIMIT_TEST_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { _ = client.Close() })
		require.NoError(t, client.Ping(context.Background()).Err())
		return redisTarget{client: client, advance: time.Sleep}
	}

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisTarget{client: client, advance: server.FastForward, server: server}
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	target := newRedisTarget(t)
	l := NewRedisLimiter(target.client, "test:"+uuid.NewString()+":")

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "10.0.0.1", "/api/employees/lookup", 3, 2*time.Second)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := l.Allow(ctx, "10.0.0.1", "/api/employees/lookup", 3, 2*time.Second)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.LessOrEqual(t, d.RetryAfter, 2*time.Second)
	assert.GreaterOrEqual(t, d.RetryAfter, time.Second)

	target.advance(2100 * time.Millisecond)
	d, err = l.Allow(ctx, "10.0.0.1", "/api/employees/lookup", 3, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiterRejectedHitsDoNotExtendWindow(t *testing.T) {
	ctx := context.Background()
	target := newRedisTarget(t)
	l := NewRedisLimiter(target.client, "test:"+uuid.NewString()+":")

	_, err := l.Allow(ctx, "10.0.0.2", "/api/admin/login", 1, 10*time.Second)
	require.NoError(t, err)

	target.advance(4 * time.Second)
	d, err := l.Allow(ctx, "10.0.0.2", "/api/admin/login", 1, 10*time.Second)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	assert.Equal(t, 6, d.RetryAfterSeconds())

	target.advance(4 * time.Second)
	d, err = l.Allow(ctx, "10.0.0.2", "/api/admin/login", 1, 10*time.Second)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	assert.Equal(t, 2, d.RetryAfterSeconds())
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	target := newRedisTarget(t)
	prefix := "test:" + uuid.NewString() + ":"
	l := NewRedisLimiter(target.client, prefix)

	d, _ := l.Allow(ctx, "a", "/login", 1, time.Minute)
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, "a", "/login", 1, time.Minute)
	assert.False(t, d.Allowed)
	d, _ = l.Allow(ctx, "b", "/login", 1, time.Minute)
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, "a", "/lookup", 1, time.Minute)
	assert.True(t, d.Allowed)

	count, err := target.client.Get(ctx, prefix+key("a", "/login")).Int()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRedisLimiterReportsServerErrors(t *testing.T) {
	target := newRedisTarget(t)
	if target.server == nil {
		t.Skip("needs the in-process server")
	}
	l := NewRedisLimiter(target.client, "test:")
	target.server.Close()

	_, err := l.Allow(context.Background(), "a", "/login", 1, time.Minute)
	assert.Error(t, err)
}
