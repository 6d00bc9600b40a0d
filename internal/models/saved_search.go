package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SavedSearch stores a named search request for re-running later.
// The number a user may keep is capped by their plan's savedSearches limit.
type SavedSearch struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"`
	Name      string             `bson:"name" json:"name"`
	Request   SearchRequest      `bson:"request" json:"request"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
