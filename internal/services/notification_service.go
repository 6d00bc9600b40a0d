package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crowdvest/internal/database"
	"crowdvest/internal/logging"
	"crowdvest/internal/models"
)

// NotificationService stores in-app notifications and mirrors ledger events
// to email. It implements Dispatcher for the investment ledger; every channel
// failure is logged and swallowed, never surfaced to the ledger caller.
type NotificationService struct {
	mongoDB     *database.MongoDB
	email       EmailSender
	userService *UserService
}

func NewNotificationService(mongoDB *database.MongoDB, email EmailSender, userService *UserService) *NotificationService {
	return &NotificationService{mongoDB: mongoDB, email: email, userService: userService}
}

// InvestmentConfirmed notifies the investor their contribution was recorded
func (s *NotificationService) InvestmentConfirmed(ctx context.Context, investment *models.Investment, project *models.Project) {
	s.deliver(ctx, investment.UserID, models.Notification{
		Kind:  models.NotifKindInvestmentConfirmed,
		Title: "Investment confirmed",
		Message: fmt.Sprintf("Your investment of $%.2f in %q was confirmed. Expected return: $%.2f on %s.",
			investment.Amount, project.Title, investment.ExpectedReturn,
			investment.ExpectedReturnDate.Format("Jan 2, 2006")),
		Payload: map[string]any{
			"investment_id": investment.ID.Hex(),
			"project_id":    project.ID.Hex(),
			"amount":        investment.Amount,
		},
	})
}

// InvestmentCancelled notifies the investor their refund was processed
func (s *NotificationService) InvestmentCancelled(ctx context.Context, investment *models.Investment, project *models.Project) {
	s.deliver(ctx, investment.UserID, models.Notification{
		Kind:  models.NotifKindInvestmentCancelled,
		Title: "Investment cancelled",
		Message: fmt.Sprintf("Your investment of $%.2f in %q was cancelled and will be refunded. Reason: %s",
			investment.Amount, project.Title, investment.RefundReason),
		Payload: map[string]any{
			"investment_id": investment.ID.Hex(),
			"project_id":    project.ID.Hex(),
			"amount":        investment.Amount,
		},
	})
}

// ProjectFunded notifies the project owner their target was reached
func (s *NotificationService) ProjectFunded(ctx context.Context, project *models.Project) {
	if project.CreatedBy == "" {
		return
	}
	s.deliver(ctx, project.CreatedBy, models.Notification{
		Kind:  models.NotifKindProjectFunded,
		Title: "Project fully funded",
		Message: fmt.Sprintf("%q reached its funding target of $%.2f with %d investors.",
			project.Title, project.TargetAmount, project.TotalInvestors),
		Payload: map[string]any{
			"project_id": project.ID.Hex(),
		},
	})
}

// deliver writes the in-app notification and mirrors it to email
func (s *NotificationService) deliver(ctx context.Context, userID string, notification models.Notification) {
	logger := logging.WithDispatch(notification.Kind, userID)

	notification.ID = primitive.NewObjectID()
	notification.UserID = userID
	notification.CreatedAt = time.Now()

	if _, err := s.mongoDB.Collection(database.CollectionNotifications).InsertOne(ctx, notification); err != nil {
		logger.Warn("failed to store notification", "error", err)
		if m := GetMetrics(); m != nil {
			m.DispatchFailures.WithLabelValues("in_app").Inc()
		}
	}

	if s.email == nil || s.userService == nil {
		return
	}
	user, err := s.userService.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("skipping email, user lookup failed", "error", err)
		return
	}
	if err := s.email.Send(user.Email, notification.Title, notification.Message); err != nil {
		logger.Warn("failed to send email", "error", err)
		if m := GetMetrics(); m != nil {
			m.DispatchFailures.WithLabelValues("email").Inc()
		}
	}
}

// ListByUser returns a page of the user's notifications, newest first
func (s *NotificationService) ListByUser(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]models.Notification, models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > models.MaxLimit {
		limit = models.DefaultLimit
	}

	filter := bson.M{"userId": userID}
	if unreadOnly {
		filter["read"] = false
	}

	collection := s.mongoDB.Collection(database.CollectionNotifications)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]models.Notification, 0, limit)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to decode notifications: %w", err)
	}

	return notifications, models.NewPagination(page, limit, total), nil
}

// MarkRead marks a single notification read. Users can only mark their own.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	notificationOID, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return models.NewNotFoundError("Notification")
	}

	res, err := s.mongoDB.Collection(database.CollectionNotifications).UpdateOne(ctx,
		bson.M{"_id": notificationOID, "userId": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Notification")
	}
	return nil
}

// MarkAllRead marks every unread notification for the user read and returns
// how many were updated
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.mongoDB.Collection(database.CollectionNotifications).UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}
