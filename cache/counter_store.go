// Package cache provides TTL'd atomic counters for the login guard and
// creation rate caps. Production deployments back it with Redis so lockout
// state is shared across instances; tests and degraded deployments use the
// in-memory store.
package cache

import (
	"context"
	"time"
)

// CounterStore is a key-value store with TTL semantics and an atomic
// increment primitive. Implementations must be safe for concurrent use.
type CounterStore interface {
	// Incr increments the counter for key and returns the new value. The
	// first increment in a fresh window arms the window expiry; later
	// increments leave it untouched (fixed window).
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)

	// Get returns the current count and the remaining window. A missing or
	// expired key yields (0, 0, nil).
	Get(ctx context.Context, key string) (int64, time.Duration, error)

	// Delete removes the counter. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
