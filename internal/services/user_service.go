package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"crowdvest/internal/database"
	"crowdvest/internal/models"
	"crowdvest/pkg/auth"
)

// UserService manages accounts and their subscription state
type UserService struct {
	mongoDB     *database.MongoDB
	planService *PlanService
}

func NewUserService(mongoDB *database.MongoDB, planService *PlanService) *UserService {
	return &UserService{mongoDB: mongoDB, planService: planService}
}

// Register creates an account with a hashed password and the free plan
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, models.NewFieldValidationError("Invalid registration", models.FieldError{
			Field: "email", Message: "a valid email is required",
		})
	}
	if len(password) < 8 {
		return nil, models.NewFieldValidationError("Invalid registration", models.FieldError{
			Field: "password", Message: "must be at least 8 characters",
		})
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleUser,
		PlanKey:      models.PlanFree,
		CreatedAt:    now,
		LastLoginAt:  now,
	}

	if _, err := s.mongoDB.Collection(database.CollectionUsers).InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.NewFieldValidationError("Invalid registration", models.FieldError{
				Field: "email", Message: "email is already registered",
			})
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies credentials and stamps the login time. Lookup and
// verification failures return the same error so the response does not leak
// which emails exist.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.mongoDB.Collection(database.CollectionUsers).
		FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewAuthorizationError("Invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, models.NewAuthorizationError("Invalid email or password")
	}

	now := time.Now()
	_, _ = s.mongoDB.Collection(database.CollectionUsers).UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"lastLoginAt": now}},
	)
	user.LastLoginAt = now

	return &user, nil
}

// GetByID loads a user by hex id
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.mongoDB.Collection(database.CollectionUsers).
		FindOne(ctx, bson.M{"_id": objectIDOrZero(userID)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("User")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// GetByBillingCustomer resolves the user tied to a billing gateway customer id
func (s *UserService) GetByBillingCustomer(ctx context.Context, customerID string) (*models.User, error) {
	var user models.User
	err := s.mongoDB.Collection(database.CollectionUsers).
		FindOne(ctx, bson.M{"billingCustomerId": customerID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("User")
		}
		return nil, fmt.Errorf("failed to load user by billing customer: %w", err)
	}
	return &user, nil
}

// UpdateSubscription applies a subscription change and invalidates the plan
// cache so the next search runs under the new tier
func (s *UserService) UpdateSubscription(ctx context.Context, userID, planKey, status string, expiresAt *time.Time, subscriptionID string) error {
	if _, ok := models.PlanOrder[planKey]; !ok {
		return models.NewFieldValidationError("Invalid subscription update", models.FieldError{
			Field: "plan_key", Message: "unknown plan " + planKey,
		})
	}

	set := bson.M{
		"planKey":            planKey,
		"subscriptionStatus": status,
	}
	if expiresAt != nil {
		set["subscriptionExpiresAt"] = *expiresAt
	}
	if subscriptionID != "" {
		set["billingSubscriptionId"] = subscriptionID
	}

	res, err := s.mongoDB.Collection(database.CollectionUsers).UpdateOne(ctx,
		bson.M{"_id": objectIDOrZero(userID)},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("User")
	}

	if s.planService != nil {
		s.planService.InvalidateCache(userID)
	}
	return nil
}

// AttachBillingCustomer records the billing gateway customer id on the account
func (s *UserService) AttachBillingCustomer(ctx context.Context, userID, customerID string) error {
	res, err := s.mongoDB.Collection(database.CollectionUsers).UpdateOne(ctx,
		bson.M{"_id": objectIDOrZero(userID)},
		bson.M{"$set": bson.M{"billingCustomerId": customerID}},
	)
	if err != nil {
		return fmt.Errorf("failed to attach billing customer: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("User")
	}
	return nil
}
