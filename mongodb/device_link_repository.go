package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/miracoleplus/bridge/domain"
	serrors "github.com/miracoleplus/bridge/errors"
)

type DeviceLinkRepository struct {
	coll *mongo.Collection
}

func NewDeviceLinkRepository(db *mongo.Database) *DeviceLinkRepository {
	return &DeviceLinkRepository{
		coll: db.Collection(DeviceLinksCollection),
	}
}

func (r *DeviceLinkRepository) Insert(ctx context.Context, code *domain.DeviceLinkCode) error {
	code.ID = uuid.NewString()
	code.CreatedAt = time.Now().UTC()
	code.UpdatedAt = code.CreatedAt

	if _, err := r.coll.InsertOne(ctx, code); err != nil {
		return fmt.Errorf("%w: failed to insert device link code: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return nil
}

// GetVisible returns the row for code when it is linked (terminal state stays
// visible past the window) or unlinked and still inside its window.
func (r *DeviceLinkRepository) GetVisible(ctx context.Context, code string) (*domain.DeviceLinkCode, error) {
	filter := bson.M{
		"code": code,
		"$or": []bson.M{
			{"linked": true},
			{"expires_at": bson.M{"$gt": time.Now().UTC()}},
		},
	}

	var result domain.DeviceLinkCode
	err := r.coll.FindOne(ctx, filter).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, serrors.ErrDeviceCodeNotFound
		}
		return nil, fmt.Errorf("%w: failed to look up device link code: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return &result, nil
}

func (r *DeviceLinkRepository) ExistsActive(ctx context.Context, code string) (bool, error) {
	filter := bson.M{
		"code":       code,
		"linked":     false,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("%w: failed to check device link code: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return count > 0, nil
}

// Link flips linked=false to true in a single conditional update so two
// concurrent confirms cannot both win. The filter also requires the window to
// be open, which resolves the confirm-vs-expiry race: an expired unlinked row
// matches nothing and the caller sees NotFound.
func (r *DeviceLinkRepository) Link(ctx context.Context, code string, userID int64) (*domain.DeviceLinkCode, error) {
	filter := bson.M{
		"code":       code,
		"linked":     false,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}
	update := bson.M{
		"$set": bson.M{
			"linked":     true,
			"user_id":    userID,
			"updated_at": time.Now().UTC(),
		},
	}
	opt := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.DeviceLinkCode
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opt).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, serrors.ErrDeviceCodeNotFound
		}
		return nil, fmt.Errorf("%w: failed to link device code: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return &updated, nil
}

// DeleteExpired removes unlinked rows whose window has passed. Linked rows
// are kept so the pairing client can still observe the terminal state.
func (r *DeviceLinkRepository) DeleteExpired(ctx context.Context) error {
	filter := bson.M{
		"linked":     false,
		"expires_at": bson.M{"$lte": time.Now().UTC()},
	}

	if _, err := r.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("%w: failed to sweep expired device codes: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return nil
}

var _ domain.DeviceLinkRepository = (*DeviceLinkRepository)(nil)
