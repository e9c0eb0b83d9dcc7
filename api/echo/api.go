// Package echoapi exposes the service over HTTP. Handlers stay thin: decode,
// call the service layer, map the error taxonomy to status codes. Every
// unauthorized cause produces the same 401 body so responses leak nothing
// about why a credential was rejected.
package echoapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/miracoleplus/bridge/api"
	"github.com/miracoleplus/bridge/cache"
	serrors "github.com/miracoleplus/bridge/errors"
	"github.com/miracoleplus/bridge/services"
)

// HealthChecker reports store connectivity for the health endpoint.
type HealthChecker func(ctx context.Context) error

// AuthAPI binds the auth and device-linking services to echo routes.
type AuthAPI struct {
	auth         *services.AuthService
	devices      *services.DeviceLinkService
	tokens       *services.TokenService
	counters     cache.CounterStore
	codesPerHour int64
	health       HealthChecker
}

func NewAuthAPI(
	auth *services.AuthService,
	devices *services.DeviceLinkService,
	tokens *services.TokenService,
	counters cache.CounterStore,
	codesPerHour int,
	health HealthChecker,
) *AuthAPI {
	return &AuthAPI{
		auth:         auth,
		devices:      devices,
		tokens:       tokens,
		counters:     counters,
		codesPerHour: int64(codesPerHour),
		health:       health,
	}
}

// RegisterRoutes attaches all endpoints to the echo instance.
func (a *AuthAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/login", a.handleLogin)
	e.POST("/auth/refresh", a.handleRefresh)
	e.POST("/auth/logout", a.handleLogout)

	e.POST("/device/code", a.handleDeviceCode, a.deviceCodeRateLimit)
	e.POST("/device/poll", a.handleDevicePoll)
	e.GET("/device/poll", a.handleDevicePoll)
	e.POST("/device/confirm", a.handleDeviceConfirm, a.requireAccessToken)

	e.GET("/me", a.handleMe, a.requireAccessToken)
	e.GET("/healthz", a.handleHealthz)
}

func (a *AuthAPI) handleLogin(c echo.Context) error {
	var req api.LoginRequest
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Password == "" {
		return badRequest(c, "username and password are required")
	}

	result, err := a.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return a.mapError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse(result, true))
}

func (a *AuthAPI) handleRefresh(c echo.Context) error {
	var req api.RefreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return badRequest(c, "refresh_token is required")
	}

	result, err := a.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return a.mapError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse(result, false))
}

// handleLogout always returns success. Whether the presented token was valid
// is not disclosed.
func (a *AuthAPI) handleLogout(c echo.Context) error {
	var req api.RefreshRequest
	_ = c.Bind(&req)

	a.auth.Logout(c.Request().Context(), req.RefreshToken)

	return c.JSON(http.StatusOK, api.SuccessResponse{Success: true, Message: "logged out"})
}

func (a *AuthAPI) handleDeviceCode(c echo.Context) error {
	result, err := a.devices.CreateCode(c.Request().Context())
	if err != nil {
		return a.mapError(c, err)
	}

	return c.JSON(http.StatusOK, api.DeviceCodeResponse{
		Success:    true,
		DeviceCode: result.Code,
		ExpiresIn:  result.ExpiresIn,
	})
}

func (a *AuthAPI) handleDevicePoll(c echo.Context) error {
	code := a.extractDeviceCode(c)
	if code == "" {
		return badRequest(c, "device code is required")
	}

	status, err := a.devices.Poll(c.Request().Context(), code)
	if err != nil {
		return a.mapError(c, err)
	}

	return c.JSON(http.StatusOK, api.DeviceStatusResponse{
		Success:   true,
		Activated: status.Activated,
		UserID:    status.UserID,
	})
}

func (a *AuthAPI) handleDeviceConfirm(c echo.Context) error {
	code := a.extractDeviceCode(c)
	if code == "" {
		return badRequest(c, "device code is required")
	}

	claims := claimsFrom(c)
	status, err := a.devices.Confirm(c.Request().Context(), code, claims.UserID)
	if err != nil {
		return a.mapError(c, err)
	}

	return c.JSON(http.StatusOK, api.DeviceStatusResponse{
		Success:   true,
		Activated: status.Activated,
		UserID:    status.UserID,
	})
}

// handleMe returns the token payload plus a live membership re-check, so a
// lapsed subscription is visible before the access token expires.
func (a *AuthAPI) handleMe(c echo.Context) error {
	claims := claimsFrom(c)

	hasMembership, err := a.auth.Membership(c.Request().Context(), claims.UserID)
	if err != nil {
		return a.mapError(c, err)
	}

	subscription := "free"
	if hasMembership {
		subscription = "premium"
	}

	return c.JSON(http.StatusOK, api.MeResponse{
		Success:             true,
		UserID:              claims.UserID,
		Username:            claims.Username,
		Email:               claims.Email,
		Subscription:        subscription,
		HasActiveMembership: hasMembership,
	})
}

func (a *AuthAPI) handleHealthz(c echo.Context) error {
	if a.health != nil {
		if err := a.health(c.Request().Context()); err != nil {
			log.Error().Err(err).Msg("health check failed")
			return c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "degraded"})
		}
	}

	return c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// extractDeviceCode accepts the code from the JSON body (both field
// spellings) or the "code" query parameter.
func (a *AuthAPI) extractDeviceCode(c echo.Context) string {
	if code := c.QueryParam("code"); code != "" {
		return code
	}

	var req api.DeviceCodeRequest
	if err := c.Bind(&req); err != nil {
		return ""
	}

	return req.Code()
}

// mapError is the single place the error taxonomy becomes status codes.
func (a *AuthAPI) mapError(c echo.Context, err error) error {
	var lockout *serrors.LockoutError
	if errors.As(err, &lockout) {
		c.Response().Header().Set("Retry-After", strconv.Itoa(lockout.RetryAfter))
		return c.JSON(http.StatusTooManyRequests, api.ErrorResponse{
			Error:      "locked_out",
			Message:    "too many failed login attempts, try again later",
			RetryAfter: lockout.RetryAfter,
		})
	}

	switch {
	case errors.Is(err, serrors.ErrInvalidCredentials),
		errors.Is(err, serrors.ErrInvalidToken),
		errors.Is(err, serrors.ErrWrongTokenType),
		errors.Is(err, serrors.ErrRefreshTokenNotFound),
		errors.Is(err, serrors.ErrUserNotFound):
		return unauthorized(c)
	case errors.Is(err, serrors.ErrDeviceCodeNotFound):
		return c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:   "not_found",
			Message: "device code not found or expired",
		})
	case errors.Is(err, serrors.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, api.ErrorResponse{
			Error:   "rate_limited",
			Message: "too many requests",
		})
	case errors.Is(err, serrors.ErrUpstreamUnavailable):
		log.Error().Err(err).Str("path", c.Path()).Msg("upstream unavailable")
		return c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{
			Error:   "upstream_unavailable",
			Message: "service temporarily unavailable",
		})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		return c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:   "internal_error",
			Message: "internal server error",
		})
	}
}

func loginResponse(result *services.LoginResult, includeUser bool) api.LoginResponse {
	resp := api.LoginResponse{
		Success:      true,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
	}

	if includeUser && result.User != nil {
		subscription := "free"
		if result.HasActiveMembership {
			subscription = "premium"
		}
		resp.User = &api.UserInfo{
			Email:        result.User.Email,
			Name:         result.User.DisplayName,
			Subscription: subscription,
		}
	}

	return resp
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, api.ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// unauthorized is the uniform 401. Identical for every cause.
func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, api.ErrorResponse{
		Error:   "unauthorized",
		Message: "authentication required",
	})
}
