// Package ratelimit throttles requests per client address and route using
// fixed windows.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	// RetryAfter is set on rejection; it is never below one second.
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds the hint up to whole seconds for the Retry-After header.
func (d Decision) RetryAfterSeconds() int {
	return int(retryAfter(d.RetryAfter) / time.Second)
}

// Limiter counts hits for a (client, route) pair within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, clientAddr, routeKey string, limit int, window time.Duration) (Decision, error)
}

func key(clientAddr, routeKey string) string {
	return clientAddr + "|" + routeKey
}

// retryAfter rounds the time left in a window up to whole seconds.
func retryAfter(remaining time.Duration) time.Duration {
	secs := math.Ceil(remaining.Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}
