package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification template kinds emitted by the ledger
const (
	NotifKindInvestmentConfirmed = "investment_confirmed"
	NotifKindInvestmentCancelled = "investment_cancelled"
	NotifKindProjectFunded       = "project_funded"
)

// Notification is an in-app message for a user
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"`
	Kind      string             `bson:"kind" json:"kind"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Payload   map[string]any     `bson:"payload,omitempty" json:"payload,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
