package ratelimit

import (
	"context"
	"time"
)

// Decision is returned on every Allow call, rejected or not, so callers can
// self-throttle from the limit, remaining, and reset values.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter enforces a fixed per-window request cap per client key. Distinct
// keys have fully independent buckets.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
}

func NewLimiter(store CounterStore, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Limiter{store: store, limit: limit, window: window}
}

func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, windowStart, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return Decision{Limit: l.limit}, err
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   windowStart.Add(l.window),
	}, nil
}
