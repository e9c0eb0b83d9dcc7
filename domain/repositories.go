package domain

import "context"

// DeviceLinkRepository persists pairing codes. Lookups must treat linked rows
// as always visible and unlinked rows as visible only inside their window.
type DeviceLinkRepository interface {
	// Insert stores a new unlinked code. The repository assigns ID and
	// CreatedAt.
	Insert(ctx context.Context, code *DeviceLinkCode) error

	// GetVisible returns the row for code if it is linked, or unlinked and
	// unexpired. Returns errors.ErrDeviceCodeNotFound otherwise.
	GetVisible(ctx context.Context, code string) (*DeviceLinkCode, error)

	// ExistsActive reports whether an unlinked, unexpired row with this code
	// exists. Used for generation collision checks.
	ExistsActive(ctx context.Context, code string) (bool, error)

	// Link atomically flips linked=false to true for an unexpired row and
	// sets the owner. Returns errors.ErrDeviceCodeNotFound when no such row
	// matched, which includes the row being already linked.
	Link(ctx context.Context, code string, userID int64) (*DeviceLinkCode, error)

	// DeleteExpired removes unlinked rows whose window has passed. Linked
	// rows are terminal and are kept.
	DeleteExpired(ctx context.Context) error
}

// RefreshTokenRepository persists refresh-token fingerprints.
type RefreshTokenRepository interface {
	Insert(ctx context.Context, rec *RefreshTokenRecord) error

	// GetUsableByFingerprint returns the non-revoked, non-expired record for
	// the fingerprint, or errors.ErrRefreshTokenNotFound.
	GetUsableByFingerprint(ctx context.Context, fingerprint string) (*RefreshTokenRecord, error)

	// Revoke marks the record revoked. Revoking an already-revoked or absent
	// record is not an error.
	Revoke(ctx context.Context, fingerprint string) error

	DeleteExpired(ctx context.Context) error
}

// UserRepository maintains the local identity mirror. The mirror is
// write-only from this service's point of view; reads happen in the backing
// store's other consumers.
type UserRepository interface {
	Upsert(ctx context.Context, user *User) error
}
