// Package redis implements the shared counter store on Redis so lockout and
// rate state is consistent across server instances.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore implements cache.CounterStore using Redis INCR/EXPIRE.
// INCR is atomic server-side, so concurrent increments from multiple
// instances never lose updates.
type CounterStore struct {
	client *redis.Client
	prefix string
}

// NewCounterStore creates a new CounterStore. The prefix namespaces keys so
// several counter families can share one Redis database.
func NewCounterStore(client *redis.Client, prefix string) *CounterStore {
	return &CounterStore{
		client: client,
		prefix: prefix,
	}
}

func (s *CounterStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

// Incr implements cache.CounterStore.Incr. INCR and EXPIRE NX travel in one
// pipeline so a counter can never end up without a TTL: the NX variant arms
// the window on the first increment and repairs a key that lost its expiry,
// without extending a window that is already running.
func (s *CounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := s.redisKey(key)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	return incr.Val(), nil
}

// Get implements cache.CounterStore.Get.
func (s *CounterStore) Get(ctx context.Context, key string) (int64, time.Duration, error) {
	k := s.redisKey(key)

	count, err := s.client.Get(ctx, k).Int64()
	if err == redis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read counter: %w", err)
	}

	ttl, err := s.client.TTL(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read counter TTL: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	return count, ttl, nil
}

// Delete implements cache.CounterStore.Delete.
func (s *CounterStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete counter: %w", err)
	}

	return nil
}
