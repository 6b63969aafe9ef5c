package ratelimit

import (
	"context"
	"sync"
	"time"
)

// CounterStore is the narrow keyed-counter contract behind the limiter. The
// in-memory implementation is the default; a Redis implementation exists for
// deployments that share one budget across processes.
type CounterStore interface {
	// Increment bumps the counter for key inside the current fixed window,
	// atomically resetting the bucket first when the window has elapsed. It
	// returns the post-increment count and the window start.
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)

	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}

// MemoryCounterStore keeps per-key buckets in a mutex-guarded map. Stale
// buckets are swept lazily once the map grows past maxEntries.
type MemoryCounterStore struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxEntries int

	nowFunc func() time.Time
}

type bucket struct {
	windowStart time.Time
	count       int64
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		buckets:    make(map[string]*bucket),
		maxEntries: 5000,
		nowFunc:    time.Now,
	}
}

func (s *MemoryCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.nowFunc().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[key]
	if b == nil || now.Sub(b.windowStart) >= window {
		b = &bucket{windowStart: now}
		s.buckets[key] = b
	}
	b.count++

	if len(s.buckets) > s.maxEntries {
		for existing, value := range s.buckets {
			if now.Sub(value.windowStart) >= window {
				delete(s.buckets, existing)
			}
		}
	}

	return b.count, b.windowStart, nil
}

func (s *MemoryCounterStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, key)
	return nil
}
