// Package ratelimit is a sliding-window request limiter with pluggable
// storage, so limits can be shared across instances through Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // zero when allowed
	Reset      time.Time     // when the oldest counted hit leaves the window
}

// Store counts hits per key inside a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

// MemoryStore keeps hit timestamps per key in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hits: map[string][]time.Time{}}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	kept := s.hits[key][:0]
	for _, t := range s.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		s.hits[key] = kept
		reset := kept[0].Add(window)
		return Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			RetryAfter: reset.Sub(now),
			Reset:      reset,
		}, nil
	}

	kept = append(kept, now)
	s.hits[key] = kept
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(kept),
		Reset:     kept[0].Add(window),
	}, nil
}

// Sweep drops keys with no hits inside window. Run it periodically on
// long-lived processes.
func (s *MemoryStore) Sweep(window time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-window)
	dropped := 0
	for k, ts := range s.hits {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(s.hits, k)
			dropped++
		}
	}
	return dropped
}
