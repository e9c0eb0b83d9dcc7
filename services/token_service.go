package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	serrors "github.com/miracoleplus/bridge/errors"
	"github.com/miracoleplus/bridge/internal/crypto"
)

// Token kinds carried in the "type" claim. The discriminator prevents a
// refresh token being replayed where an access token is expected and vice
// versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPayload is the identity snapshot embedded in both token kinds.
type TokenPayload struct {
	UserID              int64  `json:"userId"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	HasActiveMembership bool   `json:"hasActiveMembership"`
}

// Claims is the signed JWT body: the payload plus the type discriminator and
// the registered iat/exp claims.
type Claims struct {
	TokenPayload
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is one issued access/refresh pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and verifies RS256-signed session credentials. Signing
// uses the private key, verification only the public key, so
// verification-only contexts never hold signing material.
type TokenService struct {
	keys       *crypto.KeyPair
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService. A missing public key is a
// configuration error; a missing private key only forbids issuance.
func NewTokenService(keys *crypto.KeyPair, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if keys == nil || keys.PublicKey == nil {
		return nil, fmt.Errorf("token service requires a public key")
	}

	return &TokenService{
		keys:       keys,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssuePair mints a short-lived access token and a long-lived refresh token
// from one payload.
func (s *TokenService) IssuePair(payload TokenPayload) (*TokenPair, error) {
	accessToken, err := s.issue(payload, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.issue(payload, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *TokenService) issue(payload TokenPayload, tokenType string, ttl time.Duration) (string, error) {
	if s.keys.PrivateKey == nil {
		return "", fmt.Errorf("no signing key configured")
	}

	now := time.Now()
	claims := Claims{
		TokenPayload: payload,
		Type:         tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.keys.PrivateKey)
}

// Verify checks signature, structure and expiry and returns the claims.
// Every failure collapses into ErrInvalidToken; callers must additionally
// check Claims.Type against the kind their endpoint expects.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return s.keys.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", serrors.ErrInvalidToken, err)
	}

	return &claims, nil
}

// VerifyTyped verifies the token and additionally enforces the type
// discriminator, returning ErrWrongTokenType on mismatch.
func (s *TokenService) VerifyTyped(tokenString, wantType string) (*Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != wantType {
		return nil, fmt.Errorf("%w: got %q, want %q", serrors.ErrWrongTokenType, claims.Type, wantType)
	}

	return claims, nil
}

// ExpirationOf decodes the token without verifying its signature and returns
// the exp claim. Used only to compute ledger persistence expiry, never for
// trust decisions.
func (s *TokenService) ExpirationOf(tokenString string) (time.Time, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", serrors.ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", serrors.ErrInvalidToken)
	}

	return claims.ExpiresAt.Time, nil
}
