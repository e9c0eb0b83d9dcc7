package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/miracoleplus/bridge/domain"
	serrors "github.com/miracoleplus/bridge/errors"
)

type RefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		coll: db.Collection(RefreshTokensCollection),
	}
}

func (r *RefreshTokenRepository) Insert(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("%w: failed to insert refresh token record: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return nil
}

func (r *RefreshTokenRepository) GetUsableByFingerprint(ctx context.Context, fingerprint string) (*domain.RefreshTokenRecord, error) {
	filter := bson.M{
		"fingerprint": fingerprint,
		"revoked":     false,
		"expires_at":  bson.M{"$gt": time.Now().UTC()},
	}

	var rec domain.RefreshTokenRecord
	err := r.coll.FindOne(ctx, filter).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, serrors.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("%w: failed to look up refresh token: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return &rec, nil
}

// Revoke marks the record revoked. A missing or already-revoked record is a
// no-op, which makes logout and repeated revocation idempotent.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, fingerprint string) error {
	update := bson.M{"$set": bson.M{"revoked": true}}

	if _, err := r.coll.UpdateOne(ctx, bson.M{"fingerprint": fingerprint}, update); err != nil {
		return fmt.Errorf("%w: failed to revoke refresh token: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) error {
	filter := bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}}

	if _, err := r.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("%w: failed to sweep expired refresh tokens: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return nil
}

var _ domain.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
