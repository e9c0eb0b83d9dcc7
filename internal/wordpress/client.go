// Package wordpress implements the Identity Gateway against a
// WordPress+PaidMembershipsPro site. Credentials are verified through the
// site's JWT auth endpoint; membership entitlement comes from the PMPro REST
// API. Every call is bounded by the client timeout and connection failures
// surface as ErrUpstreamUnavailable so the HTTP boundary can map them to 503.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/miracoleplus/bridge/domain"
	serrors "github.com/miracoleplus/bridge/errors"
)

// Client talks to the upstream WordPress site.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a gateway client. timeout bounds every upstream call.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type wpTokenResponse struct {
	Token string `json:"token"`
}

type wpUser struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Slug        string `json:"slug"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func (u *wpUser) toDomain() *domain.UpstreamUser {
	username := u.Username
	if username == "" {
		username = u.Slug
	}
	displayName := u.DisplayName
	if displayName == "" {
		displayName = u.Name
	}

	return &domain.UpstreamUser{
		ID:          u.ID,
		Username:    username,
		Email:       u.Email,
		DisplayName: displayName,
	}
}

// Authenticate exchanges credentials for a WordPress JWT and resolves the
// authenticated user through /users/me with it.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*domain.UpstreamUser, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/wp-json/jwt-auth/v1/token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: wordpress auth request failed: %v", serrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		// Only genuine rejections count as bad credentials; anything else
		// (upstream 429s included) must not feed the lockout counter.
		return nil, serrors.ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("%w: wordpress auth returned status %d", serrors.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var tokenResp wpTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil || tokenResp.Token == "" {
		return nil, fmt.Errorf("%w: wordpress auth returned no token", serrors.ErrUpstreamUnavailable)
	}

	return c.userFromToken(ctx, tokenResp.Token)
}

func (c *Client) userFromToken(ctx context.Context, wpToken string) (*domain.UpstreamUser, error) {
	var user wpUser
	if err := c.getJSON(ctx, "/wp-json/wp/v2/users/me?context=edit", wpToken, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: wordpress returned no user for token", serrors.ErrUpstreamUnavailable)
	}

	return user.toDomain(), nil
}

// GetUser looks up a user by its WordPress ID using the service API key.
func (c *Client) GetUser(ctx context.Context, id int64) (*domain.UpstreamUser, error) {
	var user wpUser
	err := c.getJSON(ctx, fmt.Sprintf("/wp-json/wp/v2/users/%d?context=edit", id), c.apiKey, &user)
	if err != nil {
		return nil, err
	}

	return user.toDomain(), nil
}

type pmproMember struct {
	Status string `json:"status"`
}

// HasActiveMembership queries PMPro for the user's membership record. A
// missing member record is a plain "no membership", not an error.
func (c *Client) HasActiveMembership(ctx context.Context, userID int64) (bool, error) {
	var member pmproMember
	err := c.getJSON(ctx, fmt.Sprintf("/wp-json/pmpro/v1/members/%d", userID), c.apiKey, &member)
	if err != nil {
		if errors.Is(err, serrors.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	return member.Status == "active", nil
}

func (c *Client) getJSON(ctx context.Context, path, bearer string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: wordpress request failed: %v", serrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return serrors.ErrUserNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		log.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("wordpress rejected service credentials")
		return fmt.Errorf("%w: wordpress rejected request with status %d", serrors.ErrUpstreamUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: wordpress returned status %d", serrors.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode wordpress response: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return nil
}

var _ domain.IdentityGateway = (*Client)(nil)
