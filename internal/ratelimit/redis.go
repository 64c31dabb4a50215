package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Increments the window counter and starts its expiry on the first hit.
// Returns the count after increment and the remaining TTL in milliseconds.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter shares windows across instances through Redis. Expiry is left
// to Redis, so no sweeping is needed.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
}

// NewRedisLimiter builds a limiter storing keys under prefix.
func NewRedisLimiter(client redis.Scripter, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow runs the fixed-window script for the key. Hits past the limit still
// increment the counter but never extend the window.
func (l *RedisLimiter) Allow(ctx context.Context, clientAddr, routeKey string, limit int, windowSize time.Duration) (Decision, error) {
	res, err := fixedWindowScript.Run(ctx, l.client,
		[]string{l.prefix + key(clientAddr, routeKey)},
		windowSize.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}

	count, ttlMillis := res[0], res[1]
	if count <= int64(limit) {
		return Decision{Allowed: true}, nil
	}
	return Decision{RetryAfter: retryAfter(time.Duration(ttlMillis) * time.Millisecond)}, nil
}
