package domain

import "time"

// DeviceLinkCode represents one TV/device pairing attempt. A code starts
// unlinked with no owner, may be polled any number of times, and is linked at
// most once. Expiry is not a stored state: it is derived from ExpiresAt, and
// expired unlinked rows are swept lazily before each operation. A linked row
// stays visible after its window so the pairing client can still observe the
// terminal state.
type DeviceLinkCode struct {
	ID        string    `bson:"_id" json:"id"`
	Code      string    `bson:"code" json:"code"`
	UserID    *int64    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Linked    bool      `bson:"linked" json:"linked"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Expired reports whether the pairing window has passed. Linked codes are
// terminal regardless of the window.
func (c *DeviceLinkCode) Expired(now time.Time) bool {
	return !c.Linked && now.After(c.ExpiresAt)
}
