package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresAttemptStore persists login outcomes in auth_login_attempts so lock
// state survives restarts. Concurrent Record calls for one identity serialize
// on a row lock.
type PostgresAttemptStore struct {
	db        *sql.DB
	window    time.Duration
	lockFor   time.Duration
	threshold int
}

func NewPostgresAttemptStore(db *sql.DB, threshold int, window, lockFor time.Duration) *PostgresAttemptStore {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if lockFor <= 0 {
		lockFor = 30 * time.Minute
	}

	return &PostgresAttemptStore{db: db, threshold: threshold, window: window, lockFor: lockFor}
}

func (s *PostgresAttemptStore) Record(ctx context.Context, identity, source string, success bool) error {
	if success {
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM auth_login_attempts
			WHERE identity = $1
		`, identity)
		if err != nil {
			return fmt.Errorf("reset login attempts: %w", err)
		}
		return nil
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin login attempt tx: %w", err)
	}
	defer tx.Rollback()

	var failed int
	var lastFailureAt sql.NullTime
	var lockedUntil sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT failed_count, last_failure_at, locked_until
		FROM auth_login_attempts
		WHERE identity = $1
		FOR UPDATE
	`, identity).Scan(&failed, &lastFailureAt, &lockedUntil)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock login attempt row: %w", err)
	}

	// Failures outside the tracking window do not count as consecutive.
	if lastFailureAt.Valid && now.Sub(lastFailureAt.Time.UTC()) > s.window {
		failed = 0
	}
	failed++

	var nextLock any
	if failed >= s.threshold && (!lockedUntil.Valid || now.After(lockedUntil.Time.UTC())) {
		nextLock = now.Add(s.lockFor)
	} else if lockedUntil.Valid && now.Before(lockedUntil.Time.UTC()) {
		nextLock = lockedUntil.Time.UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO auth_login_attempts (identity, source, failed_count, last_failure_at, locked_until, updated_at)
		VALUES ($1, $2, $3, $4, $5, $4)
		ON CONFLICT (identity)
		DO UPDATE SET
			source = EXCLUDED.source,
			failed_count = EXCLUDED.failed_count,
			last_failure_at = EXCLUDED.last_failure_at,
			locked_until = EXCLUDED.locked_until,
			updated_at = EXCLUDED.updated_at
	`, identity, source, failed, now, nextLock)
	if err != nil {
		return fmt.Errorf("upsert login attempt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit login attempt tx: %w", err)
	}

	return nil
}

func (s *PostgresAttemptStore) Status(ctx context.Context, identity string) (AttemptStatus, error) {
	now := time.Now().UTC()

	var failed int
	var lastFailureAt sql.NullTime
	var lockedUntil sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT failed_count, last_failure_at, locked_until
		FROM auth_login_attempts
		WHERE identity = $1
	`, identity).Scan(&failed, &lastFailureAt, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AttemptStatus{}, nil
		}
		return AttemptStatus{}, fmt.Errorf("query login attempt: %w", err)
	}

	status := AttemptStatus{FailedCount: failed}
	if lastFailureAt.Valid && now.Sub(lastFailureAt.Time.UTC()) > s.window {
		status.FailedCount = 0
	}
	if lockedUntil.Valid && now.Before(lockedUntil.Time.UTC()) {
		until := lockedUntil.Time.UTC()
		status.LockedUntil = &until
	}

	return status, nil
}

// PruneStale deletes records whose lock has expired and whose last update is
// older than the retention cutoff. Used by the maintenance endpoint.
func (s *PostgresAttemptStore) PruneStale(ctx context.Context, retention time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-retention)

	res, err := s.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT identity
			FROM auth_login_attempts
			WHERE updated_at < $1
			  AND (locked_until IS NULL OR locked_until < NOW())
			ORDER BY updated_at ASC
			LIMIT $2
		)
		DELETE FROM auth_login_attempts t
		USING stale
		WHERE t.identity = stale.identity
	`, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete stale login attempts: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale login attempts rows affected: %w", err)
	}

	return affected, nil
}
