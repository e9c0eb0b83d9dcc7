package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"

	"github.com/miracoleplus/bridge/domain"
)

// Fingerprint hashes a raw token for server-side lookup. Only fingerprints
// are persisted, never the token itself.
func Fingerprint(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenLedger persists issued refresh-token fingerprints and enforces
// rotation-on-use and revocation. Access tokens are stateless and never pass
// through the ledger.
type RefreshTokenLedger struct {
	repo   domain.RefreshTokenRepository
	tokens *TokenService
}

func NewRefreshTokenLedger(repo domain.RefreshTokenRepository, tokens *TokenService) *RefreshTokenLedger {
	return &RefreshTokenLedger{
		repo:   repo,
		tokens: tokens,
	}
}

// sweep removes expired records. Failures are logged, not propagated: the
// usability filter already excludes expired records, a failed sweep only
// delays cleanup.
func (l *RefreshTokenLedger) sweep(ctx context.Context) {
	if err := l.repo.DeleteExpired(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to sweep expired refresh token records")
	}
}

// Persist records the fingerprint of a freshly issued refresh token. The
// record's expiry mirrors the token's own exp claim, read without signature
// verification since the token was just minted locally.
func (l *RefreshTokenLedger) Persist(ctx context.Context, userID int64, rawToken string) error {
	l.sweep(ctx)

	expiresAt, err := l.tokens.ExpirationOf(rawToken)
	if err != nil {
		return err
	}

	return l.repo.Insert(ctx, &domain.RefreshTokenRecord{
		UserID:      userID,
		Fingerprint: Fingerprint(rawToken),
		Revoked:     false,
		ExpiresAt:   expiresAt,
	})
}

// Validate looks up the non-revoked, non-expired record for the raw token.
// A valid signature alone is not enough for rotation: a logged-out or
// superseded token has no usable record and is rejected here.
func (l *RefreshTokenLedger) Validate(ctx context.Context, rawToken string) (*domain.RefreshTokenRecord, error) {
	l.sweep(ctx)

	return l.repo.GetUsableByFingerprint(ctx, Fingerprint(rawToken))
}

// Revoke marks a record revoked. Idempotent.
func (l *RefreshTokenLedger) Revoke(ctx context.Context, fingerprint string) error {
	return l.repo.Revoke(ctx, fingerprint)
}

// RevokeToken revokes by raw token value, for logout.
func (l *RefreshTokenLedger) RevokeToken(ctx context.Context, rawToken string) error {
	return l.repo.Revoke(ctx, Fingerprint(rawToken))
}
