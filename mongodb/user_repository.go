package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/miracoleplus/bridge/domain"
	serrors "github.com/miracoleplus/bridge/errors"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		coll: db.Collection(UsersCollection),
	}
}

// Upsert refreshes the identity mirror keyed by the upstream user ID.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()

	filter := bson.M{"_id": user.ID}
	update := bson.M{
		"$set": bson.M{
			"email":              user.Email,
			"display_name":       user.DisplayName,
			"subscription_level": user.SubscriptionLevel,
			"updated_at":         now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	opt := options.UpdateOne().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, update, opt); err != nil {
		return fmt.Errorf("%w: failed to upsert user mirror: %v", serrors.ErrUpstreamUnavailable, err)
	}

	return nil
}

var _ domain.UserRepository = (*UserRepository)(nil)
