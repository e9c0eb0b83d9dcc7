// Package errors defines the failure taxonomy shared by the service layer.
// Components return these sentinels (optionally wrapped); only the HTTP
// boundary maps them to status codes.
package errors

import "errors"

var (
	// ErrInvalidToken covers bad signature, malformed structure and expiry.
	// The HTTP layer must not reveal which of these failed.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrWrongTokenType is returned when an access token is presented where a
	// refresh token is expected, or vice versa.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrInvalidCredentials is returned by the identity gateway when the
	// username/password pair is rejected upstream.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLockedOut signals that the login guard rejected the attempt before
	// credentials were checked.
	ErrLockedOut = errors.New("too many failed login attempts")

	// ErrRateLimited signals that a creation rate cap was hit.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrDeviceCodeNotFound covers both unknown and expired device codes on
	// confirm. Poll never surfaces it.
	ErrDeviceCodeNotFound = errors.New("device code not found or expired")

	// ErrGenerationExhausted is returned when every generation attempt
	// collided with an active code.
	ErrGenerationExhausted = errors.New("could not generate a unique device code")

	// ErrRefreshTokenNotFound is returned by the ledger when no usable
	// (non-revoked, non-expired) record matches the token fingerprint.
	ErrRefreshTokenNotFound = errors.New("refresh token not found, revoked or expired")

	// ErrUserNotFound is returned when the upstream identity provider no
	// longer knows the user referenced by a token.
	ErrUserNotFound = errors.New("user not found")

	// ErrUpstreamUnavailable wraps identity-gateway and store
	// timeouts/connection failures. Safe for the client to retry with backoff.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// LockoutError carries the retry hint for a locked-out principal. It matches
// ErrLockedOut under errors.Is so callers can test without the concrete type.
type LockoutError struct {
	RetryAfter int // seconds until the window expires
}

func (e *LockoutError) Error() string {
	return ErrLockedOut.Error()
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrLockedOut
}
