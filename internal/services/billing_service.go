package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
	"go.mongodb.org/mongo-driver/mongo"

	"crowdvest/internal/database"
	"crowdvest/internal/models"
)

// Billing webhook event types, following the standard-webhooks envelope
const (
	BillingEventSubscriptionActive    = "subscription.active"
	BillingEventSubscriptionRenewed   = "subscription.renewed"
	BillingEventSubscriptionOnHold    = "subscription.on_hold"
	BillingEventSubscriptionCancelled = "subscription.cancelled"
	BillingEventSubscriptionExpired   = "subscription.expired"
)

// billingEvent is the verified webhook payload from the billing gateway
type billingEvent struct {
	Type string `json:"type"`
	Data struct {
		CustomerID     string     `json:"customer_id"`
		SubscriptionID string     `json:"subscription_id"`
		PlanKey        string     `json:"plan_key"`
		ExpiresAt      *time.Time `json:"expires_at"`
	} `json:"data"`
}

// webhookEvent is the processed-event record used for idempotency
type webhookEvent struct {
	EventID     string    `bson:"eventId"`
	EventType   string    `bson:"eventType"`
	ProcessedAt time.Time `bson:"processedAt"`
}

// BillingService applies subscription changes pushed by the billing gateway.
// Payloads are signature-verified and processed at most once per event id.
type BillingService struct {
	mongoDB     *database.MongoDB
	userService *UserService
	verifier    *standardwebhooks.Webhook
}

func NewBillingService(mongoDB *database.MongoDB, userService *UserService, webhookSecret string) (*BillingService, error) {
	verifier, err := standardwebhooks.NewWebhook(webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook verifier: %w", err)
	}
	return &BillingService{
		mongoDB:     mongoDB,
		userService: userService,
		verifier:    verifier,
	}, nil
}

// HandleWebhook verifies and applies one billing event. Replayed events are
// acknowledged without reprocessing.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if err := s.verifier.Verify(payload, headers); err != nil {
		return models.NewAuthorizationError("Invalid webhook signature")
	}

	eventID := headers.Get("webhook-id")
	if eventID == "" {
		return models.NewValidationError("Missing webhook-id header")
	}

	var event billingEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return models.NewValidationError("Malformed webhook payload")
	}

	// Unique index on eventId makes the insert the idempotency gate
	_, err := s.mongoDB.Collection(database.CollectionWebhookEvents).InsertOne(ctx, webhookEvent{
		EventID:     eventID,
		EventType:   event.Type,
		ProcessedAt: time.Now(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Printf("🔁 Billing event %s already processed, acknowledging", eventID)
			return nil
		}
		return fmt.Errorf("failed to record webhook event: %w", err)
	}

	return s.apply(ctx, &event)
}

func (s *BillingService) apply(ctx context.Context, event *billingEvent) error {
	user, err := s.userService.GetByBillingCustomer(ctx, event.Data.CustomerID)
	if err != nil {
		return err
	}
	userID := user.ID.Hex()

	switch event.Type {
	case BillingEventSubscriptionActive, BillingEventSubscriptionRenewed:
		planKey := event.Data.PlanKey
		if planKey == "" {
			return models.NewValidationError("Webhook event missing plan_key")
		}
		err = s.userService.UpdateSubscription(ctx, userID, planKey,
			models.SubStatusActive, event.Data.ExpiresAt, event.Data.SubscriptionID)
		if err == nil {
			log.Printf("✅ Subscription %s for user %s: plan %s", event.Type, userID, planKey)
		}
		return err

	case BillingEventSubscriptionOnHold:
		return s.userService.UpdateSubscription(ctx, userID, user.PlanKey,
			models.SubStatusOnHold, event.Data.ExpiresAt, event.Data.SubscriptionID)

	case BillingEventSubscriptionCancelled, BillingEventSubscriptionExpired:
		err = s.userService.UpdateSubscription(ctx, userID, models.PlanFree,
			models.SubStatusCancelled, nil, event.Data.SubscriptionID)
		if err == nil {
			log.Printf("ℹ️ Subscription ended for user %s (%s)", userID, event.Type)
		}
		return err

	default:
		// Unknown event types are acknowledged so the gateway stops retrying
		log.Printf("⚠️ Ignoring unknown billing event type %q", event.Type)
		return nil
	}
}
