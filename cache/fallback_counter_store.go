package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// FallbackCounterStore tries a primary (shared) store and degrades to a
// secondary (in-process) store when the primary errors. While degraded,
// lockout is only per-instance; the degradation is logged, not hidden.
type FallbackCounterStore struct {
	primary  CounterStore
	fallback CounterStore
}

// NewFallbackCounterStore wraps primary with fallback.
func NewFallbackCounterStore(primary, fallback CounterStore) *FallbackCounterStore {
	return &FallbackCounterStore{
		primary:  primary,
		fallback: fallback,
	}
}

// Incr implements CounterStore.Incr.
func (s *FallbackCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.primary.Incr(ctx, key, window)
	if err == nil {
		return count, nil
	}
	log.Warn().Err(err).Str("key", key).Msg("primary counter store failed, using in-memory fallback")

	return s.fallback.Incr(ctx, key, window)
}

// Get implements CounterStore.Get.
func (s *FallbackCounterStore) Get(ctx context.Context, key string) (int64, time.Duration, error) {
	count, ttl, err := s.primary.Get(ctx, key)
	if err == nil {
		return count, ttl, nil
	}
	log.Warn().Err(err).Str("key", key).Msg("primary counter store failed, using in-memory fallback")

	return s.fallback.Get(ctx, key)
}

// Delete implements CounterStore.Delete.
func (s *FallbackCounterStore) Delete(ctx context.Context, key string) error {
	if err := s.primary.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("primary counter store failed, using in-memory fallback")
	}

	// Always clear the fallback too so a recovered primary cannot resurrect
	// stale local counts.
	return s.fallback.Delete(ctx, key)
}
