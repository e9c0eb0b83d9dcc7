package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/miracoleplus/bridge/domain"
	serrors "github.com/miracoleplus/bridge/errors"
	"github.com/miracoleplus/bridge/internal/devicecode"
)

// generationAttempts bounds retries on code collision. With a 32^8 code
// space and a 15-minute window a collision is operationally near-impossible,
// but exhaustion is still surfaced as an error, not asserted away.
const generationAttempts = 5

// DeviceCodeResult is returned to the pairing client on creation.
type DeviceCodeResult struct {
	Code      string
	ExpiresIn int
}

// DeviceStatus is the outcome of poll and confirm.
type DeviceStatus struct {
	Activated bool
	UserID    *int64
}

// DeviceLinkService owns the device-code state machine: creation, lazy
// expiry sweep, poll and confirm. Expired rows are swept before each
// operation, so no background scheduler is needed and the table stays
// bounded.
type DeviceLinkService struct {
	repo       domain.DeviceLinkRepository
	codeLength int
	ttl        time.Duration
}

func NewDeviceLinkService(repo domain.DeviceLinkRepository, codeLength int, ttl time.Duration) *DeviceLinkService {
	return &DeviceLinkService{
		repo:       repo,
		codeLength: codeLength,
		ttl:        ttl,
	}
}

// sweep removes expired unlinked rows. Failures are logged, not propagated:
// a failed sweep only delays cleanup, the visibility filters still exclude
// expired rows.
func (s *DeviceLinkService) sweep(ctx context.Context) {
	if err := s.repo.DeleteExpired(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to sweep expired device codes")
	}
}

// CreateCode generates a fresh pairing code, retrying on collision against
// active codes, and persists it unlinked with the fixed expiry window.
func (s *DeviceLinkService) CreateCode(ctx context.Context) (*DeviceCodeResult, error) {
	s.sweep(ctx)

	for attempt := 0; attempt < generationAttempts; attempt++ {
		code, err := devicecode.Generate(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate device code: %w", err)
		}

		exists, err := s.repo.ExistsActive(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		rec := &domain.DeviceLinkCode{
			Code:      code,
			Linked:    false,
			ExpiresAt: time.Now().UTC().Add(s.ttl),
		}
		if err := s.repo.Insert(ctx, rec); err != nil {
			return nil, err
		}

		log.Info().Str("code", code).Dur("ttl", s.ttl).Msg("device code created")

		return &DeviceCodeResult{
			Code:      code,
			ExpiresIn: int(s.ttl.Seconds()),
		}, nil
	}

	return nil, serrors.ErrGenerationExhausted
}

// Poll reports whether the code has been linked. Unknown and expired-unlinked
// codes both come back as not-activated with no distinguishing error, so the
// response shape leaks no enumeration signal. No authentication: the TV has
// no identity yet.
func (s *DeviceLinkService) Poll(ctx context.Context, code string) (*DeviceStatus, error) {
	s.sweep(ctx)

	rec, err := s.repo.GetVisible(ctx, code)
	if err != nil {
		if errors.Is(err, serrors.ErrDeviceCodeNotFound) {
			return &DeviceStatus{Activated: false}, nil
		}
		return nil, err
	}

	if rec.Linked {
		return &DeviceStatus{Activated: true, UserID: rec.UserID}, nil
	}

	return &DeviceStatus{Activated: false}, nil
}

// Confirm links the code to the authenticated user. The flip is a single
// conditional update, so under concurrent confirms only one caller wins; the
// loser observes the already-linked row and returns the same success with
// the existing owner, making confirm idempotent. Absent and expired codes
// are indistinguishable (both NotFound).
func (s *DeviceLinkService) Confirm(ctx context.Context, code string, userID int64) (*DeviceStatus, error) {
	s.sweep(ctx)

	rec, err := s.repo.Link(ctx, code, userID)
	if err == nil {
		log.Info().Str("code", code).Int64("user_id", userID).Msg("device code confirmed")
		return &DeviceStatus{Activated: true, UserID: rec.UserID}, nil
	}
	if !errors.Is(err, serrors.ErrDeviceCodeNotFound) {
		return nil, err
	}

	// The conditional update matched nothing: either the code is gone or it
	// was linked already (possibly by a concurrent confirm). Already linked
	// wins; return the existing owner without mutating state.
	existing, readErr := s.repo.GetVisible(ctx, code)
	if readErr != nil {
		if errors.Is(readErr, serrors.ErrDeviceCodeNotFound) {
			return nil, serrors.ErrDeviceCodeNotFound
		}
		return nil, readErr
	}
	if existing.Linked {
		return &DeviceStatus{Activated: true, UserID: existing.UserID}, nil
	}

	return nil, serrors.ErrDeviceCodeNotFound
}
