package domain

import "time"

// RefreshTokenRecord is the server-side ledger entry for one outstanding
// refresh credential. Only a one-way fingerprint of the token is stored,
// never the raw value. A record is usable for rotation while Revoked is
// false and ExpiresAt is in the future.
type RefreshTokenRecord struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      int64     `bson:"user_id" json:"user_id"`
	Fingerprint string    `bson:"fingerprint" json:"fingerprint"`
	Revoked     bool      `bson:"revoked" json:"revoked"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
