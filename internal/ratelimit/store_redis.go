package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore shares one fixed-window budget across processes. The
// bucket key expires with the window, so a reset is just the TTL elapsing.
type RedisCounterStore struct {
	client *redis.Client
	prefix string
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client, prefix: "ratelimit:"}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := time.Now().UTC()
	bucketKey := s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, bucketKey)
	ttl := pipe.PTTL(ctx, bucketKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("increment rate bucket: %w", err)
	}

	count := incr.Val()
	remaining := ttl.Val()
	if remaining < 0 {
		// First hit in a fresh window; arm the expiry.
		if err := s.client.PExpire(ctx, bucketKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("arm rate bucket expiry: %w", err)
		}
		remaining = window
	}

	windowStart := now.Add(remaining - window)
	return count, windowStart, nil
}

func (s *RedisCounterStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("reset rate bucket: %w", err)
	}
	return nil
}
