package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miracoleplus/bridge/domain"
	serrors "github.com/miracoleplus/bridge/errors"
)

// In-memory repository fakes mirroring the mongo filters, shared across the
// service tests.

type fakeDeviceLinkRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.DeviceLinkCode

	insertErr error
}

func newFakeDeviceLinkRepo() *fakeDeviceLinkRepo {
	return &fakeDeviceLinkRepo{rows: make(map[string]*domain.DeviceLinkCode)}
}

func (r *fakeDeviceLinkRepo) Insert(_ context.Context, code *domain.DeviceLinkCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.insertErr != nil {
		return r.insertErr
	}

	cp := *code
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now().UTC()
	r.rows[cp.Code] = &cp

	return nil
}

func (r *fakeDeviceLinkRepo) GetVisible(_ context.Context, code string) (*domain.DeviceLinkCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[code]
	if !ok || (!row.Linked && row.Expired(time.Now())) {
		return nil, serrors.ErrDeviceCodeNotFound
	}

	cp := *row
	return &cp, nil
}

func (r *fakeDeviceLinkRepo) ExistsActive(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[code]
	return ok && !row.Linked && !row.Expired(time.Now()), nil
}

func (r *fakeDeviceLinkRepo) Link(_ context.Context, code string, userID int64) (*domain.DeviceLinkCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[code]
	if !ok || row.Linked || row.Expired(time.Now()) {
		return nil, serrors.ErrDeviceCodeNotFound
	}

	row.Linked = true
	row.UserID = &userID
	row.UpdatedAt = time.Now().UTC()

	cp := *row
	return &cp, nil
}

func (r *fakeDeviceLinkRepo) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, row := range r.rows {
		if !row.Linked && row.Expired(time.Now()) {
			delete(r.rows, code)
		}
	}

	return nil
}

type fakeRefreshTokenRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.RefreshTokenRecord

	insertErr error
	revokeErr error
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{rows: make(map[string]*domain.RefreshTokenRecord)}
}

func (r *fakeRefreshTokenRepo) Insert(_ context.Context, rec *domain.RefreshTokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.insertErr != nil {
		return r.insertErr
	}

	cp := *rec
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now().UTC()
	r.rows[cp.Fingerprint] = &cp

	return nil
}

func (r *fakeRefreshTokenRepo) GetUsableByFingerprint(_ context.Context, fingerprint string) (*domain.RefreshTokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.rows[fingerprint]
	if !ok || rec.Revoked || !rec.ExpiresAt.After(time.Now()) {
		return nil, serrors.ErrRefreshTokenNotFound
	}

	cp := *rec
	return &cp, nil
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.revokeErr != nil {
		return r.revokeErr
	}

	if rec, ok := r.rows[fingerprint]; ok {
		rec.Revoked = true
	}

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for fp, rec := range r.rows {
		if !rec.ExpiresAt.After(time.Now()) {
			delete(r.rows, fp)
		}
	}

	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*domain.User

	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Upsert(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.upsertErr != nil {
		return r.upsertErr
	}

	cp := *user
	r.users[cp.ID] = &cp

	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, serrors.ErrUserNotFound
	}

	cp := *user
	return &cp, nil
}

type fakeGateway struct {
	users      map[string]*domain.UpstreamUser // keyed by username, password is "correct"
	membership map[int64]bool

	authErr       error
	membershipErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:      make(map[string]*domain.UpstreamUser),
		membership: make(map[int64]bool),
	}
}

func (g *fakeGateway) Authenticate(_ context.Context, username, password string) (*domain.UpstreamUser, error) {
	if g.authErr != nil {
		return nil, g.authErr
	}

	user, ok := g.users[username]
	if !ok || password != "correct" {
		return nil, serrors.ErrInvalidCredentials
	}

	cp := *user
	return &cp, nil
}

func (g *fakeGateway) GetUser(_ context.Context, id int64) (*domain.UpstreamUser, error) {
	for _, user := range g.users {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}

	return nil, serrors.ErrUserNotFound
}

func (g *fakeGateway) HasActiveMembership(_ context.Context, userID int64) (bool, error) {
	if g.membershipErr != nil {
		return false, g.membershipErr
	}

	return g.membership[userID], nil
}

var (
	_ domain.DeviceLinkRepository   = (*fakeDeviceLinkRepo)(nil)
	_ domain.RefreshTokenRepository = (*fakeRefreshTokenRepo)(nil)
	_ domain.UserRepository         = (*fakeUserRepo)(nil)
	_ domain.IdentityGateway        = (*fakeGateway)(nil)
)
