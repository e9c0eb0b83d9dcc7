package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/miracoleplus/bridge/domain"
	serrors "github.com/miracoleplus/bridge/errors"
)

// LoginResult is the outcome of a successful login or refresh.
type LoginResult struct {
	AccessToken         string
	RefreshToken        string
	ExpiresIn           int
	User                *domain.UpstreamUser
	HasActiveMembership bool
}

// AuthService orchestrates login, refresh rotation and logout against the
// upstream identity gateway, the token service, the refresh ledger and the
// login guard.
type AuthService struct {
	gateway domain.IdentityGateway
	users   domain.UserRepository
	tokens  *TokenService
	ledger  *RefreshTokenLedger
	guard   *LoginGuard
}

func NewAuthService(
	gateway domain.IdentityGateway,
	users domain.UserRepository,
	tokens *TokenService,
	ledger *RefreshTokenLedger,
	guard *LoginGuard,
) *AuthService {
	return &AuthService{
		gateway: gateway,
		users:   users,
		tokens:  tokens,
		ledger:  ledger,
		guard:   guard,
	}
}

// Login verifies credentials upstream and mints a token pair. The guard is
// consulted first so a locked principal is rejected before credentials are
// even checked, and every upstream rejection feeds the failure counter.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	status, err := s.guard.IsLocked(ctx, username)
	if err != nil {
		// Fail open on guard storage trouble: lockout is a hardening layer,
		// not a correctness dependency of login itself.
		log.Warn().Err(err).Str("username", username).Msg("login guard unavailable, skipping lockout check")
	} else if status.Locked {
		return nil, &serrors.LockoutError{RetryAfter: status.RetryAfter}
	}

	user, err := s.gateway.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, serrors.ErrInvalidCredentials) {
			if recErr := s.guard.RecordFailure(ctx, username); recErr != nil {
				log.Warn().Err(recErr).Str("username", username).Msg("failed to record login failure")
			}
		}
		return nil, err
	}

	hasMembership, err := s.gateway.HasActiveMembership(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Reset(ctx, username); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("failed to reset login failure counter")
	}

	return s.completeLogin(ctx, user, hasMembership)
}

// completeLogin mirrors the user, mints the pair and records the refresh
// fingerprint. Mirror and ledger writes at login are best-effort: the user
// still gets a valid access token when refresh bookkeeping is degraded.
func (s *AuthService) completeLogin(ctx context.Context, user *domain.UpstreamUser, hasMembership bool) (*LoginResult, error) {
	s.upsertMirror(ctx, user, hasMembership)

	pair, err := s.tokens.IssuePair(TokenPayload{
		UserID:              user.ID,
		Username:            user.Username,
		Email:               user.Email,
		HasActiveMembership: hasMembership,
	})
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Persist(ctx, user.ID, pair.RefreshToken); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).
			Msg("failed to persist refresh token fingerprint, rotation will reject this token")
	}

	return &LoginResult{
		AccessToken:         pair.AccessToken,
		RefreshToken:        pair.RefreshToken,
		ExpiresIn:           int(s.tokens.AccessTTL().Seconds()),
		User:                user,
		HasActiveMembership: hasMembership,
	}, nil
}

// Refresh rotates a refresh token: verify signature and type, validate the
// ledger record, mint a new pair, persist the new fingerprint and only then
// revoke the old one. The persist-new-before-revoke-old order means a crash
// mid-rotation leaves the old token usable instead of stranding the user
// with neither.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.VerifyTyped(rawRefreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	rec, err := s.ledger.Validate(ctx, rawRefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.gateway.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	hasMembership, err := s.gateway.HasActiveMembership(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.upsertMirror(ctx, user, hasMembership)

	pair, err := s.tokens.IssuePair(TokenPayload{
		UserID:              user.ID,
		Username:            user.Username,
		Email:               user.Email,
		HasActiveMembership: hasMembership,
	})
	if err != nil {
		return nil, err
	}

	// Unlike at login, persistence is a hard requirement here: handing out a
	// rotated token the ledger cannot find would make the next refresh fail.
	if err := s.ledger.Persist(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}

	if err := s.ledger.Revoke(ctx, rec.Fingerprint); err != nil {
		// The old record surviving briefly is tolerated; the new token is
		// already durable.
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to revoke rotated refresh token")
	}

	return &LoginResult{
		AccessToken:         pair.AccessToken,
		RefreshToken:        pair.RefreshToken,
		ExpiresIn:           int(s.tokens.AccessTTL().Seconds()),
		User:                user,
		HasActiveMembership: hasMembership,
	}, nil
}

// Logout revokes the refresh token's ledger record when one is presented.
// It never fails: reporting whether the token was valid would be an oracle.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string) {
	if rawRefreshToken == "" {
		return
	}

	if _, err := s.tokens.VerifyTyped(rawRefreshToken, TokenTypeRefresh); err != nil {
		log.Debug().Msg("logout with invalid refresh token, nothing to revoke")
		return
	}

	if err := s.ledger.RevokeToken(ctx, rawRefreshToken); err != nil {
		log.Warn().Err(err).Msg("failed to revoke refresh token at logout")
	}
}

// Membership re-checks the user's entitlement live through the gateway.
func (s *AuthService) Membership(ctx context.Context, userID int64) (bool, error) {
	return s.gateway.HasActiveMembership(ctx, userID)
}

func (s *AuthService) upsertMirror(ctx context.Context, user *domain.UpstreamUser, hasMembership bool) {
	level := "free"
	if hasMembership {
		level = "premium"
	}

	err := s.users.Upsert(ctx, &domain.User{
		ID:                user.ID,
		Email:             user.Email,
		DisplayName:       user.DisplayName,
		SubscriptionLevel: level,
	})
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to upsert user mirror")
	}
}
