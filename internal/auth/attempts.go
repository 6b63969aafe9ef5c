package auth

import (
	"context"
	"sync"
	"time"
)

// AttemptStatus is a consistent snapshot of one identity's login history.
type AttemptStatus struct {
	FailedCount int
	LockedUntil *time.Time
}

// AttemptStore records login outcomes per identity and derives lock state.
// The in-memory implementation below is the default; store-backed
// implementations (Postgres) exist for deployments that need durability
// across restarts.
type AttemptStore interface {
	// Record appends a login outcome. A success logically clears all prior
	// failures for the identity.
	Record(ctx context.Context, identity, source string, success bool) error

	// Status reports the current failure count and lock expiry, pruned to
	// the tracking window.
	Status(ctx context.Context, identity string) (AttemptStatus, error)
}

// MemoryAttemptStore tracks attempts in a mutex-guarded map. Record and
// Status for one identity are linearizable under the lock; stale failure
// records are pruned lazily on access.
type MemoryAttemptStore struct {
	mu        sync.Mutex
	window    time.Duration
	lockFor   time.Duration
	threshold int
	entries   map[string]*attemptEntry

	nowFunc func() time.Time
}

type attemptEntry struct {
	failures    []time.Time
	lastSource  string
	lockedUntil time.Time
}

func NewMemoryAttemptStore(threshold int, window, lockFor time.Duration) *MemoryAttemptStore {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if lockFor <= 0 {
		lockFor = 30 * time.Minute
	}

	return &MemoryAttemptStore{
		window:    window,
		lockFor:   lockFor,
		threshold: threshold,
		entries:   make(map[string]*attemptEntry),
		nowFunc:   time.Now,
	}
}

func (s *MemoryAttemptStore) Record(ctx context.Context, identity, source string, success bool) error {
	now := s.nowFunc().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if success {
		delete(s.entries, identity)
		return nil
	}

	entry := s.entries[identity]
	if entry == nil {
		entry = &attemptEntry{}
		s.entries[identity] = entry
	}

	entry.failures = pruneBefore(entry.failures, now.Add(-s.window))
	entry.failures = append(entry.failures, now)
	entry.lastSource = source

	// The lock window starts at the failure that reached the threshold.
	if len(entry.failures) >= s.threshold && !now.Before(entry.lockedUntil) {
		entry.lockedUntil = now.Add(s.lockFor)
	}

	return nil
}

func (s *MemoryAttemptStore) Status(ctx context.Context, identity string) (AttemptStatus, error) {
	now := s.nowFunc().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[identity]
	if entry == nil {
		return AttemptStatus{}, nil
	}

	entry.failures = pruneBefore(entry.failures, now.Add(-s.window))
	if len(entry.failures) == 0 && now.After(entry.lockedUntil) {
		delete(s.entries, identity)
		return AttemptStatus{}, nil
	}

	status := AttemptStatus{FailedCount: len(entry.failures)}
	if now.Before(entry.lockedUntil) {
		until := entry.lockedUntil
		status.LockedUntil = &until
	}

	return status, nil
}

func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, stamp := range stamps {
		if stamp.After(cutoff) {
			kept = append(kept, stamp)
		}
	}
	return kept
}

// IsLocked reports whether the identity is currently blocked from
// authenticating.
func IsLocked(ctx context.Context, store AttemptStore, identity string) (bool, error) {
	status, err := store.Status(ctx, identity)
	if err != nil {
		return false, err
	}
	return status.LockedUntil != nil, nil
}

// FailedCount reports failures since the identity's last success, bounded by
// the tracking window.
func FailedCount(ctx context.Context, store AttemptStore, identity string) (int, error) {
	status, err := store.Status(ctx, identity)
	if err != nil {
		return 0, err
	}
	return status.FailedCount, nil
}
