package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miracoleplus/bridge/domain"
	serrors "github.com/miracoleplus/bridge/errors"
)

func TestLedgerPersistAndValidate(t *testing.T) {
	tokens := newTestTokenService(t, time.Hour, 24*time.Hour)
	ledger := NewRefreshTokenLedger(newFakeRefreshTokenRepo(), tokens)
	ctx := context.Background()

	pair, err := tokens.IssuePair(testPayload())
	require.NoError(t, err)

	require.NoError(t, ledger.Persist(ctx, 42, pair.RefreshToken))

	rec, err := ledger.Validate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.UserID)
	assert.Equal(t, Fingerprint(pair.RefreshToken), rec.Fingerprint)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), rec.ExpiresAt, time.Minute)
}

func TestLedgerValidateUnknownToken(t *testing.T) {
	tokens := newTestTokenService(t, time.Hour, 24*time.Hour)
	ledger := NewRefreshTokenLedger(newFakeRefreshTokenRepo(), tokens)

	pair, err := tokens.IssuePair(testPayload())
	require.NoError(t, err)

	_, err = ledger.Validate(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, serrors.ErrRefreshTokenNotFound)
}

func TestLedgerRevokeIsIdempotent(t *testing.T) {
	tokens := newTestTokenService(t, time.Hour, 24*time.Hour)
	ledger := NewRefreshTokenLedger(newFakeRefreshTokenRepo(), tokens)
	ctx := context.Background()

	pair, err := tokens.IssuePair(testPayload())
	require.NoError(t, err)
	require.NoError(t, ledger.Persist(ctx, 42, pair.RefreshToken))

	fp := Fingerprint(pair.RefreshToken)
	require.NoError(t, ledger.Revoke(ctx, fp))
	require.NoError(t, ledger.Revoke(ctx, fp))

	_, err = ledger.Validate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, serrors.ErrRefreshTokenNotFound)
}

func TestLedgerSweepsExpiredRecords(t *testing.T) {
	tokens := newTestTokenService(t, time.Hour, 24*time.Hour)
	repo := newFakeRefreshTokenRepo()
	ledger := NewRefreshTokenLedger(repo, tokens)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &domain.RefreshTokenRecord{
		UserID:      42,
		Fingerprint: "stale",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))

	pair, err := tokens.IssuePair(testPayload())
	require.NoError(t, err)
	require.NoError(t, ledger.Persist(ctx, 42, pair.RefreshToken))

	// The expired record was swept lazily on the next ledger operation.
	repo.mu.Lock()
	_, stillThere := repo.rows["stale"]
	repo.mu.Unlock()
	assert.False(t, stillThere)
}

func TestFingerprintIsStableAndOpaque(t *testing.T) {
	assert.Equal(t, Fingerprint("token"), Fingerprint("token"))
	assert.NotEqual(t, Fingerprint("token"), Fingerprint("token2"))
	assert.Len(t, Fingerprint("token"), 64)
	assert.NotContains(t, Fingerprint("token"), "token")
}
