package domain

import "time"

// User mirrors an identity record of the upstream WordPress provider. It is
// created or refreshed opportunistically when first referenced; the upstream
// stays the source of truth and SubscriptionLevel is advisory only.
type User struct {
	ID                int64     `bson:"_id" json:"id"`
	Email             string    `bson:"email" json:"email"`
	DisplayName       string    `bson:"display_name" json:"display_name"`
	SubscriptionLevel string    `bson:"subscription_level" json:"subscription_level"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}
