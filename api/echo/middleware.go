package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/miracoleplus/bridge/api"
	"github.com/miracoleplus/bridge/services"
)

const claimsContextKey = "auth.claims"

// requireAccessToken verifies the bearer token and rejects anything that is
// not a valid access token. Claims land in the request context for handlers.
func (a *AuthAPI) requireAccessToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c)
		}

		claims, err := a.tokens.VerifyTyped(strings.TrimPrefix(header, "Bearer "), services.TokenTypeAccess)
		if err != nil {
			return unauthorized(c)
		}

		c.Set(claimsContextKey, claims)

		return next(c)
	}
}

func claimsFrom(c echo.Context) *services.Claims {
	claims, _ := c.Get(claimsContextKey).(*services.Claims)
	return claims
}

// deviceCodeRateLimit caps code creation per caller per hour. Keyed by the
// caller IP since the pairing device has no identity yet. Counter-store
// failures fail open: pairing keeps working when the cache is down.
func (a *AuthAPI) deviceCodeRateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.counters == nil || a.codesPerHour <= 0 {
			return next(c)
		}

		key := "device_code_rate:" + c.RealIP()
		count, err := a.counters.Incr(c.Request().Context(), key, time.Hour)
		if err != nil {
			log.Warn().Err(err).Msg("device code rate counter unavailable, allowing request")
			return next(c)
		}

		if count > a.codesPerHour {
			_, ttl, _ := a.counters.Get(c.Request().Context(), key)
			retryAfter := int(ttl.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			return c.JSON(http.StatusTooManyRequests, api.ErrorResponse{
				Error:      "rate_limited",
				Message:    "too many device codes requested, try again later",
				RetryAfter: retryAfter,
			})
		}

		return next(c)
	}
}
