package domain

import "context"

// UpstreamUser is the identity returned by the upstream provider.
type UpstreamUser struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// IdentityGateway is the upstream WordPress identity/membership provider.
// Implementations must bound every call with a timeout and surface
// connection failures as errors.ErrUpstreamUnavailable.
type IdentityGateway interface {
	// Authenticate verifies credentials upstream. Rejected credentials map to
	// errors.ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*UpstreamUser, error)

	// GetUser looks up a user by its stable upstream identifier.
	GetUser(ctx context.Context, id int64) (*UpstreamUser, error)

	// HasActiveMembership reports whether the user holds an active paid
	// membership level.
	HasActiveMembership(ctx context.Context, userID int64) (bool, error)
}
