package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type window struct {
	key     string
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps windows in a mutex-guarded map owned by the instance.
// Size is bounded by maxKeys: a new key past the bound evicts the window that
// was hit least recently. Sweep drops expired windows.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*list.Element
	// recency holds *window values, most recently hit at the front.
	recency *list.List
	maxKeys int
	now     func() time.Time
}

// NewMemoryLimiter creates a limiter holding at most maxKeys windows.
// A non-positive maxKeys leaves the map unbounded.
func NewMemoryLimiter(maxKeys int) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*list.Element),
		recency: list.New(),
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// Allow reports whether one more hit fits in the current window.
func (l *MemoryLimiter) Allow(_ context.Context, clientAddr, routeKey string, limit int, windowSize time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{RetryAfter: retryAfter(windowSize)}, nil
	}
	k := key(clientAddr, routeKey)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	el, ok := l.windows[k]
	if !ok {
		l.makeRoom()
		l.windows[k] = l.recency.PushFront(&window{key: k, count: 1, resetAt: now.Add(windowSize)})
		return Decision{Allowed: true}, nil
	}

	l.recency.MoveToFront(el)
	w := el.Value.(*window)
	if now.After(w.resetAt) {
		w.count, w.resetAt = 1, now.Add(windowSize)
		return Decision{Allowed: true}, nil
	}
	if w.count >= limit {
		return Decision{RetryAfter: retryAfter(w.resetAt.Sub(now))}, nil
	}
	w.count++
	return Decision{Allowed: true}, nil
}

// makeRoom evicts the least recently hit window when the bound is reached.
// It must be called with mu held.
func (l *MemoryLimiter) makeRoom() {
	if l.maxKeys <= 0 || len(l.windows) < l.maxKeys {
		return
	}
	if oldest := l.recency.Back(); oldest != nil {
		l.remove(oldest)
	}
}

func (l *MemoryLimiter) remove(el *list.Element) {
	l.recency.Remove(el)
	delete(l.windows, el.Value.(*window).key)
}

// Sweep drops every expired window and returns how many were removed.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for el := l.recency.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*window).resetAt) {
			l.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

// Len returns the number of tracked windows.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
