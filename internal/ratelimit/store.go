// Package ratelimit bounds how many registry writes one caller may submit in
// a sliding window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window frees a slot.
func (r Result) RetryAfter(now time.Time) int {
	wait := r.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return int((wait + time.Second - 1) / time.Second)
}

// Store admits or rejects requests for a key within a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// sweepInterval bounds how often InMemoryStore scans for idle keys.
const sweepInterval = time.Minute

type slidingWindow struct {
	stamps []time.Time
	window time.Duration
}

// InMemoryStore keeps one sliding window per key. It is per-process. Keys
// whose window has emptied are dropped by a periodic sweep.
type InMemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*slidingWindow
	lastSweep time.Time
	now       func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		windows: make(map[string]*slidingWindow),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	w, ok := s.windows[key]
	if !ok {
		w = &slidingWindow{}
		s.windows[key] = w
	}
	w.window = window
	w.stamps = prune(w.stamps, now.Add(-window))

	if len(w.stamps) >= limit {
		resetAt := now.Add(window)
		if len(w.stamps) > 0 {
			resetAt = w.stamps[0].Add(window)
		} else {
			delete(s.windows, key)
		}
		return Result{Allowed: false, Limit: limit, Remaining: 0, ResetAt: resetAt}, nil
	}

	w.stamps = append(w.stamps, now)
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.stamps),
		ResetAt:   w.stamps[0].Add(window),
	}, nil
}

// sweep drops every key with no request left in its window. Callers hold mu.
func (s *InMemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for key, w := range s.windows {
		w.stamps = prune(w.stamps, now.Add(-w.window))
		if len(w.stamps) == 0 {
			delete(s.windows, key)
		}
	}
}

// Len reports how many keys currently hold a window.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// prune drops timestamps at or before cutoff. stamps is sorted.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
