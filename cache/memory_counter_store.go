package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryCounterStore implements CounterStore with ttlcache. Counts are only
// visible to the local process, so lockout enforced through this store is
// per-instance. That weakening is accepted for single-instance and degraded
// deployments; multi-instance production should use the Redis store.
type MemoryCounterStore struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, int64]
}

// NewMemoryCounterStore creates an in-memory counter store with automatic
// cleanup of expired windows.
func NewMemoryCounterStore() *MemoryCounterStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, int64](),
	)

	go cache.Start()

	return &MemoryCounterStore{cache: cache}
}

// Incr implements CounterStore.Incr.
func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(key)
	if item == nil {
		s.cache.Set(key, 1, window)
		return 1, nil
	}

	// Keep the remaining window, the expiry was armed by the first increment.
	count := item.Value() + 1
	s.cache.Set(key, count, time.Until(item.ExpiresAt()))

	return count, nil
}

// Get implements CounterStore.Get.
func (s *MemoryCounterStore) Get(_ context.Context, key string) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(key)
	if item == nil {
		return 0, 0, nil
	}

	return item.Value(), time.Until(item.ExpiresAt()), nil
}

// Delete implements CounterStore.Delete.
func (s *MemoryCounterStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(key)

	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryCounterStore) Close() error {
	s.cache.Stop()

	return nil
}
