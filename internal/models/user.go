package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Subscription status constants
const (
	SubStatusActive    = "active"
	SubStatusOnHold    = "on_hold" // payment failed, grace period
	SubStatusCancelled = "cancelled"
)

// User represents an account in the marketplace
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name" json:"name"`
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"` // Argon2id hash, never exposed in API
	Role         string             `bson:"role" json:"role"`

	// Subscription state; PlanKey drives search-capability gating
	PlanKey               string     `bson:"planKey" json:"plan_key"`
	SubscriptionStatus    string     `bson:"subscriptionStatus,omitempty" json:"subscription_status,omitempty"`
	SubscriptionExpiresAt *time.Time `bson:"subscriptionExpiresAt,omitempty" json:"subscription_expires_at,omitempty"`

	// Billing gateway references
	BillingCustomerID     string `bson:"billingCustomerId,omitempty" json:"-"`
	BillingSubscriptionID string `bson:"billingSubscriptionId,omitempty" json:"-"`

	CreatedAt   time.Time `bson:"createdAt" json:"created_at"`
	LastLoginAt time.Time `bson:"lastLoginAt" json:"last_login_at"`
}

// EffectivePlan resolves the plan key the feature policy should use.
// Cancelled or expired subscriptions fall back to the free tier; a grace
// period (on_hold) keeps the paid tier.
func (u *User) EffectivePlan(now time.Time) string {
	if u.PlanKey == "" || u.PlanKey == PlanFree {
		return PlanFree
	}
	if u.SubscriptionStatus == SubStatusCancelled {
		return PlanFree
	}
	if u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.Before(now) && u.SubscriptionStatus != SubStatusOnHold {
		return PlanFree
	}
	return u.PlanKey
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
