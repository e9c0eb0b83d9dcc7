// Package api defines the JSON request/response shapes of the HTTP surface.
package api

// LoginRequest carries the credentials forwarded to the identity gateway.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserInfo is the public identity snapshot returned at login.
type UserInfo struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Subscription string `json:"subscription"`
}

// LoginResponse is returned by /auth/login and /auth/refresh. User is only
// present at login.
type LoginResponse struct {
	Success      bool      `json:"success"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	User         *UserInfo `json:"user,omitempty"`
}

// RefreshRequest carries the refresh token for rotation or revocation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SuccessResponse is the minimal success envelope.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// DeviceCodeResponse is returned when a new pairing code is created.
type DeviceCodeResponse struct {
	Success    bool   `json:"success"`
	DeviceCode string `json:"device_code"`
	ExpiresIn  int    `json:"expires_in"`
}

// DeviceCodeRequest accepts the code under both field spellings the clients
// use; query parameters are handled separately.
type DeviceCodeRequest struct {
	DeviceCode      string `json:"device_code"`
	DeviceCodeAlias string `json:"deviceCode"`
}

// Code returns whichever spelling was set.
func (r *DeviceCodeRequest) Code() string {
	if r.DeviceCode != "" {
		return r.DeviceCode
	}
	return r.DeviceCodeAlias
}

// DeviceStatusResponse is returned by poll and confirm.
type DeviceStatusResponse struct {
	Success   bool   `json:"success"`
	Activated bool   `json:"activated"`
	UserID    *int64 `json:"user_id,omitempty"`
}

// MeResponse is returned by /me with a live membership re-check.
type MeResponse struct {
	Success             bool   `json:"success"`
	UserID              int64  `json:"user_id"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	Subscription        string `json:"subscription"`
	HasActiveMembership bool   `json:"has_active_membership"`
}

// ErrorResponse is the uniform error envelope. RetryAfter is set only for
// rate-limit and lockout rejections.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
