// Package ratelimit bounds how many requests a client may make within a
// sliding time window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLimit  = 15
	DefaultWindow = 60 * time.Second
)

// Limiter decides whether a client may make another request now.
type Limiter interface {
	Admit(ctx context.Context, clientID string) (bool, error)
}

// Clock returns the current time. Tests substitute a fake one.
type Clock func() time.Time

// MemoryLimiter keeps each client's admission timestamps in process memory.
// All windows share one mutex.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	now     Clock
}

// NewMemoryLimiter creates a sliding-window limiter. Non-positive arguments
// fall back to the defaults.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// WithClock replaces the limiter's time source.
func (l *MemoryLimiter) WithClock(now Clock) *MemoryLimiter {
	l.now = now
	return l
}

// Admit prunes the client's window, rejects without recording when the
// window is full, and otherwise records now and admits.
func (l *MemoryLimiter) Admit(_ context.Context, clientID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := prune(l.windows[clientID], now.Add(-l.window))

	if len(kept) >= l.limit {
		l.windows[clientID] = kept
		return false, nil
	}

	l.windows[clientID] = append(kept, now)
	return true, nil
}

// Sweep drops clients whose windows hold no live timestamps and returns how
// many were dropped.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	removed := 0
	for id, ts := range l.windows {
		if len(prune(ts, cutoff)) == 0 {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients.
func (l *MemoryLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// prune returns the suffix of ts that is strictly after cutoff. ts is in
// ascending order.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append([]time.Time(nil), ts[i:]...)
}
