package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/miracoleplus/bridge/cache"
)

// LockStatus reports whether a principal is locked out and for how long.
type LockStatus struct {
	Locked     bool
	RetryAfter int // seconds
}

// LoginGuard tracks failed authentication attempts per normalized username
// and enforces a temporary lockout. Keying by username rather than IP
// resists credential stuffing across rotating IPs; a coarser IP rate limit
// outside this core bounds raw request volume.
type LoginGuard struct {
	counters    cache.CounterStore
	maxAttempts int
	window      time.Duration
}

func NewLoginGuard(counters cache.CounterStore, maxAttempts int, window time.Duration) *LoginGuard {
	return &LoginGuard{
		counters:    counters,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (g *LoginGuard) key(username string) string {
	return fmt.Sprintf("login_fail:%s", strings.ToLower(username))
}

// RecordFailure increments the failure counter; the first failure in a fresh
// window arms the window expiry.
func (g *LoginGuard) RecordFailure(ctx context.Context, username string) error {
	_, err := g.counters.Incr(ctx, g.key(username), g.window)
	return err
}

// IsLocked reports lockout once the counter reaches the threshold and the
// window has not expired.
func (g *LoginGuard) IsLocked(ctx context.Context, username string) (*LockStatus, error) {
	count, ttl, err := g.counters.Get(ctx, g.key(username))
	if err != nil {
		return nil, err
	}

	if count >= int64(g.maxAttempts) && ttl > 0 {
		return &LockStatus{
			Locked:     true,
			RetryAfter: int(math.Ceil(ttl.Seconds())),
		}, nil
	}

	return &LockStatus{}, nil
}

// Reset clears the counter, called on any successful login by the username.
func (g *LoginGuard) Reset(ctx context.Context, username string) error {
	return g.counters.Delete(ctx, g.key(username))
}
