package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crowdvest/internal/database"
	"crowdvest/internal/logging"
	"crowdvest/internal/models"
)

// Dispatcher fans ledger events out to notification channels. Dispatch is
// fire-and-forget: the ledger never waits on it and never fails because of it.
type Dispatcher interface {
	InvestmentConfirmed(ctx context.Context, investment *models.Investment, project *models.Project)
	InvestmentCancelled(ctx context.Context, investment *models.Investment, project *models.Project)
	ProjectFunded(ctx context.Context, project *models.Project)
}

// InvestmentService is the ledger: the only writer of investment records and
// of project funding counters
type InvestmentService struct {
	mongoDB      *database.MongoDB
	dispatcher   Dispatcher
	cancelWindow time.Duration
}

func NewInvestmentService(mongoDB *database.MongoDB, dispatcher Dispatcher, cancelWindow time.Duration) *InvestmentService {
	return &InvestmentService{
		mongoDB:      mongoDB,
		dispatcher:   dispatcher,
		cancelWindow: cancelWindow,
	}
}

// InvestmentSimulation is a projected outcome computed without writing
type InvestmentSimulation struct {
	ProjectID          string    `json:"project_id"`
	Amount             float64   `json:"amount"`
	ROIPercent         float64   `json:"roi_percent"`
	ExpectedReturn     float64   `json:"expected_return"`
	Profit             float64   `json:"profit"`
	ExpectedReturnDate time.Time `json:"expected_return_date"`
}

// StatusBreakdown is one status bucket of a user's investment history
type StatusBreakdown struct {
	Status              string  `bson:"_id" json:"status"`
	TotalAmount         float64 `bson:"totalAmount" json:"total_amount"`
	TotalExpectedReturn float64 `bson:"totalExpected" json:"total_expected_return"`
	TotalActualReturn   float64 `bson:"totalActual" json:"total_actual_return"`
	Count               int64   `bson:"count" json:"count"`
}

// UserInvestmentStats summarizes a user's portfolio
type UserInvestmentStats struct {
	ByStatus            []StatusBreakdown `json:"by_status"`
	TotalInvested       float64           `json:"total_invested"`
	TotalExpectedReturn float64           `json:"total_expected_return"`
	TotalInvestments    int64             `json:"total_investments"`
	RefundedAmount      float64           `json:"refunded_amount"`
	ProjectsInvested    int64             `json:"projects_invested"`
}

// InvestmentTotals summarizes an investment listing
type InvestmentTotals struct {
	TotalAmount float64 `bson:"totalAmount" json:"total_amount"`
	Count       int64   `bson:"count" json:"count"`
}

// checkInvestable validates an investment attempt against a project snapshot.
// Checks run in a fixed order so clients always see the most fundamental
// failure first.
func checkInvestable(project *models.Project, amount float64) error {
	if !project.IsActive() {
		return models.NewInvalidStateError("Project is not accepting investments")
	}
	if amount <= 0 {
		return models.NewFieldValidationError("Invalid investment", models.FieldError{
			Field: "amount", Message: "must be greater than zero",
		})
	}
	if amount < project.MinInvestment {
		return models.NewFieldValidationError("Investment amount too low", models.FieldError{
			Field:   "amount",
			Message: fmt.Sprintf("Minimum investment is $%.2f", project.MinInvestment),
		})
	}
	headroom := project.RemainingHeadroom()
	if headroom <= 0 {
		return models.NewInvalidStateError("Project is fully funded")
	}
	if amount > headroom {
		return models.NewFieldValidationError("Investment amount too high", models.FieldError{
			Field:   "amount",
			Message: fmt.Sprintf("Maximum you can invest: $%.2f", headroom),
		})
	}
	return nil
}

// headroomFilter is the compare-and-set guard for recording an investment:
// it matches the project only while it is still active with at least amount
// of funding headroom left
func headroomFilter(projectID primitive.ObjectID, targetAmount, amount float64) bson.M {
	return bson.M{
		"_id":          projectID,
		"status":       models.ProjectStatusActive,
		"fundedAmount": bson.M{"$lte": targetAmount - amount},
	}
}

// refundableFilter matches the investment only while its status still allows
// a refund, so a concurrent cancel can never decrement the project twice
func refundableFilter(investmentID primitive.ObjectID) bson.M {
	return bson.M{"_id": investmentID, "status": bson.M{"$in": bson.A{
		models.InvestmentStatusPending, models.InvestmentStatusCompleted,
	}}}
}

// fundingComplete reports whether an active project has reached its target
// and must flip to completed
func fundingComplete(p *models.Project) bool {
	return p.Status == models.ProjectStatusActive && p.FundedAmount >= p.TargetAmount
}

// fundingReopened reports whether a completed project has dropped back below
// its target and must reopen to active
func fundingReopened(p *models.Project) bool {
	return p.Status == models.ProjectStatusCompleted && p.FundedAmount < p.TargetAmount
}

// rollbackCounters computes the project counters after removing a refunded
// amount. Both counters are floored at zero: legacy records predating the
// ledger can otherwise drive them negative.
func rollbackCounters(fundedAmount float64, totalInvestors int64, amount float64) (float64, int64) {
	fundedAmount -= amount
	if fundedAmount < 0 {
		fundedAmount = 0
	}
	totalInvestors--
	if totalInvestors < 0 {
		totalInvestors = 0
	}
	return fundedAmount, totalInvestors
}

// Invest records a contribution against a project. The funding counter update
// uses a conditional write inside a transaction so two concurrent investments
// can never push fundedAmount past targetAmount.
func (s *InvestmentService) Invest(ctx context.Context, userID, projectID string, amount float64, paymentMethod, paymentRef string) (*models.Investment, error) {
	if paymentRef == "" {
		// Synchronous capture: without a gateway reference, mint one so the
		// unique paymentRef index still guards against double submission
		paymentRef = uuid.NewString()
	}

	projectOID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, models.NewNotFoundError("Project")
	}

	projects := s.mongoDB.Collection(database.CollectionProjects)
	investments := s.mongoDB.Collection(database.CollectionInvestments)

	var project models.Project
	if err := projects.FindOne(ctx, bson.M{"_id": projectOID}).Decode(&project); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Project")
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if err := checkInvestable(&project, amount); err != nil {
		return nil, err
	}

	now := time.Now()
	investment := &models.Investment{
		ID:                 primitive.NewObjectID(),
		UserID:             userID,
		ProjectID:          projectOID,
		Amount:             amount,
		PaymentMethod:      paymentMethod,
		PaymentRef:         paymentRef,
		Status:             models.InvestmentStatusCompleted,
		InvestmentDate:     now,
		ExpectedReturn:     models.ExpectedReturnFor(amount, project.ROIPercent),
		ExpectedReturnDate: now.AddDate(0, project.DurationMonths, 0),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	var fundedProject models.Project
	txErr := s.mongoDB.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// A concurrent investment that consumed the headroom first makes the
		// conditional update a no-match
		filter := headroomFilter(projectOID, project.TargetAmount, amount)
		update := bson.M{
			"$inc": bson.M{"fundedAmount": amount, "totalInvestors": 1},
			"$set": bson.M{"updatedAt": now},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		if err := projects.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&fundedProject); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return models.NewInvalidStateError("Project funding changed, please retry")
			}
			return fmt.Errorf("failed to update project funding: %w", err)
		}

		if fundingComplete(&fundedProject) {
			if _, err := projects.UpdateOne(sessCtx,
				bson.M{"_id": projectOID},
				bson.M{"$set": bson.M{"status": models.ProjectStatusCompleted, "updatedAt": now}},
			); err != nil {
				return fmt.Errorf("failed to complete project: %w", err)
			}
			fundedProject.Status = models.ProjectStatusCompleted
		}

		if _, err := investments.InsertOne(sessCtx, investment); err != nil {
			return fmt.Errorf("failed to record investment: %w", err)
		}
		return nil
	})
	if txErr != nil {
		if m := GetMetrics(); m != nil {
			m.LedgerErrors.WithLabelValues("invest", errorCategory(txErr)).Inc()
		}
		return nil, txErr
	}

	if m := GetMetrics(); m != nil {
		m.InvestmentsCreated.Inc()
		m.InvestedAmount.Add(amount)
		if fundedProject.Status == models.ProjectStatusCompleted && project.Status == models.ProjectStatusActive {
			m.ProjectsFunded.Inc()
		}
	}

	logging.WithLedger("invest", userID, projectID).Info("investment recorded",
		"investment_id", investment.ID.Hex(),
		"amount", amount,
		"project_status", fundedProject.Status,
	)

	s.dispatch(func(ctx context.Context) {
		s.dispatcher.InvestmentConfirmed(ctx, investment, &fundedProject)
		if fundedProject.Status == models.ProjectStatusCompleted {
			s.dispatcher.ProjectFunded(ctx, &fundedProject)
		}
	})

	return investment, nil
}

// Cancel refunds an investment. Owners may cancel within the cancel window;
// admins may cancel at any time. The project counters are rolled back in the
// same transaction, reopening a completed project when funding drops below
// target again.
func (s *InvestmentService) Cancel(ctx context.Context, userID, investmentID, reason string, isAdmin bool) (*models.Investment, error) {
	investmentOID, err := primitive.ObjectIDFromHex(investmentID)
	if err != nil {
		return nil, models.NewNotFoundError("Investment")
	}

	investments := s.mongoDB.Collection(database.CollectionInvestments)
	projects := s.mongoDB.Collection(database.CollectionProjects)

	var investment models.Investment
	if err := investments.FindOne(ctx, bson.M{"_id": investmentOID}).Decode(&investment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Investment")
		}
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}

	if investment.UserID != userID && !isAdmin {
		return nil, models.NewAuthorizationError("You can only cancel your own investments")
	}
	if !investment.IsRefundable() {
		return nil, models.NewInvalidStateError("Investment has already been refunded")
	}

	now := time.Now()
	if !isAdmin && !investment.WithinCancelWindow(now, s.cancelWindow) {
		return nil, models.NewInvalidStateError(
			fmt.Sprintf("Investments can only be cancelled within %d hours", int(s.cancelWindow.Hours())))
	}

	if reason == "" {
		reason = models.DefaultRefundReason
	}
	refundRef := uuid.NewString()

	var project models.Project
	txErr := s.mongoDB.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// Guard on status so a concurrent cancel cannot refund twice
		res, err := investments.UpdateOne(sessCtx,
			refundableFilter(investmentOID),
			bson.M{"$set": bson.M{
				"status":       models.InvestmentStatusRefunded,
				"refundReason": reason,
				"refundRef":    refundRef,
				"refundDate":   now,
				"updatedAt":    now,
			}},
		)
		if err != nil {
			return fmt.Errorf("failed to refund investment: %w", err)
		}
		if res.MatchedCount == 0 {
			return models.NewInvalidStateError("Investment has already been refunded")
		}

		if err := projects.FindOne(sessCtx, bson.M{"_id": investment.ProjectID}).Decode(&project); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// Project deleted out from under the ledger, nothing to roll back
				return nil
			}
			return fmt.Errorf("failed to load project: %w", err)
		}

		// Read-then-set is safe inside the transaction: a concurrent write to
		// the project aborts it and the session retries from a fresh read
		project.FundedAmount, project.TotalInvestors = rollbackCounters(
			project.FundedAmount, project.TotalInvestors, investment.Amount)
		set := bson.M{
			"fundedAmount":   project.FundedAmount,
			"totalInvestors": project.TotalInvestors,
			"updatedAt":      now,
		}
		if fundingReopened(&project) {
			set["status"] = models.ProjectStatusActive
			project.Status = models.ProjectStatusActive
		}

		if _, err := projects.UpdateOne(sessCtx,
			bson.M{"_id": investment.ProjectID},
			bson.M{"$set": set},
		); err != nil {
			return fmt.Errorf("failed to roll back project funding: %w", err)
		}
		return nil
	})
	if txErr != nil {
		if m := GetMetrics(); m != nil {
			m.LedgerErrors.WithLabelValues("cancel", errorCategory(txErr)).Inc()
		}
		return nil, txErr
	}

	investment.Status = models.InvestmentStatusRefunded
	investment.RefundReason = reason
	investment.RefundRef = refundRef
	investment.RefundDate = &now
	investment.UpdatedAt = now

	if m := GetMetrics(); m != nil {
		m.InvestmentsCancelled.Inc()
		m.InvestedAmount.Add(-investment.Amount)
	}

	logging.WithLedger("cancel", investment.UserID, investment.ProjectID.Hex()).Info("investment refunded",
		"investment_id", investment.ID.Hex(),
		"amount", investment.Amount,
		"refund_ref", refundRef,
		"admin", isAdmin,
	)

	cancelled := investment
	s.dispatch(func(ctx context.Context) {
		s.dispatcher.InvestmentCancelled(ctx, &cancelled, &project)
	})

	return &investment, nil
}

// Simulate computes the projected return for an amount without writing.
// The same preconditions as Invest apply, so a simulation that succeeds
// reflects an investment that would have been accepted at this instant.
func (s *InvestmentService) Simulate(ctx context.Context, projectID string, amount float64) (*InvestmentSimulation, error) {
	projectOID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, models.NewNotFoundError("Project")
	}

	var project models.Project
	if err := s.mongoDB.Collection(database.CollectionProjects).
		FindOne(ctx, bson.M{"_id": projectOID}).Decode(&project); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Project")
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if err := checkInvestable(&project, amount); err != nil {
		return nil, err
	}

	expectedReturn := models.ExpectedReturnFor(amount, project.ROIPercent)
	return &InvestmentSimulation{
		ProjectID:          projectID,
		Amount:             amount,
		ROIPercent:         project.ROIPercent,
		ExpectedReturn:     expectedReturn,
		Profit:             expectedReturn - amount,
		ExpectedReturnDate: time.Now().AddDate(0, project.DurationMonths, 0),
	}, nil
}

// GetByID returns a single investment. Non-admins can only read their own.
func (s *InvestmentService) GetByID(ctx context.Context, userID, investmentID string, isAdmin bool) (*models.Investment, error) {
	investmentOID, err := primitive.ObjectIDFromHex(investmentID)
	if err != nil {
		return nil, models.NewNotFoundError("Investment")
	}

	var investment models.Investment
	if err := s.mongoDB.Collection(database.CollectionInvestments).
		FindOne(ctx, bson.M{"_id": investmentOID}).Decode(&investment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Investment")
		}
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}

	if investment.UserID != userID && !isAdmin {
		return nil, models.NewNotFoundError("Investment")
	}
	return &investment, nil
}

var validInvestmentStatuses = map[string]bool{
	models.InvestmentStatusPending:   true,
	models.InvestmentStatusCompleted: true,
	models.InvestmentStatusFailed:    true,
	models.InvestmentStatusRefunded:  true,
}

// ListByUser returns a page of the user's investments, newest first, with
// summed totals over the same filter. Status narrows the listing when given.
func (s *InvestmentService) ListByUser(ctx context.Context, userID, status string, page, limit int) ([]models.Investment, models.Pagination, *InvestmentTotals, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		if !validInvestmentStatuses[status] {
			return nil, models.Pagination{}, nil, models.NewFieldValidationError("Invalid filter", models.FieldError{
				Field: "status", Message: "must be one of pending, completed, failed, refunded",
			})
		}
		filter["status"] = status
	}
	return s.listWithTotals(ctx, filter, page, limit)
}

// ListByProject returns a page of a project's investments, newest first,
// with the project's invested total and count. Admin-only at the route layer.
func (s *InvestmentService) ListByProject(ctx context.Context, projectID string, page, limit int) ([]models.Investment, models.Pagination, *InvestmentTotals, error) {
	projectOID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, models.Pagination{}, nil, models.NewNotFoundError("Project")
	}
	return s.listWithTotals(ctx, bson.M{"projectId": projectOID}, page, limit)
}

func (s *InvestmentService) listWithTotals(ctx context.Context, filter bson.M, page, limit int) ([]models.Investment, models.Pagination, *InvestmentTotals, error) {
	investments, pagination, err := s.listWithFilter(ctx, filter, page, limit)
	if err != nil {
		return nil, models.Pagination{}, nil, err
	}

	totals, err := s.totalsFor(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, nil, err
	}
	return investments, pagination, totals, nil
}

// totalsFor sums amount over every investment matching the filter, not just
// the current page
func (s *InvestmentService) totalsFor(ctx context.Context, filter bson.M) (*InvestmentTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"totalAmount": bson.M{"$sum": "$amount"},
			"count":       bson.M{"$sum": 1},
		}}},
	}

	cursor, err := s.mongoDB.Collection(database.CollectionInvestments).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sum investments: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []InvestmentTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode investment totals: %w", err)
	}
	if len(rows) == 0 {
		return &InvestmentTotals{}, nil
	}
	return &rows[0], nil
}

func (s *InvestmentService) listWithFilter(ctx context.Context, filter bson.M, page, limit int) ([]models.Investment, models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > models.MaxLimit {
		limit = models.DefaultLimit
	}

	collection := s.mongoDB.Collection(database.CollectionInvestments)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count investments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to query investments: %w", err)
	}
	defer cursor.Close(ctx)

	investments := make([]models.Investment, 0, limit)
	if err := cursor.All(ctx, &investments); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to decode investments: %w", err)
	}

	return investments, models.NewPagination(page, limit, total), nil
}

// UserStats aggregates a user's portfolio grouped by status, with refunded
// investments reported separately from the invested totals
func (s *InvestmentService) UserStats(ctx context.Context, userID string) (*UserInvestmentStats, error) {
	collection := s.mongoDB.Collection(database.CollectionInvestments)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$status",
			"totalAmount":   bson.M{"$sum": "$amount"},
			"totalExpected": bson.M{"$sum": "$expectedReturn"},
			"totalActual":   bson.M{"$sum": "$actualReturn"},
			"count":         bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate investments: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []StatusBreakdown
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode investment stats: %w", err)
	}

	stats := &UserInvestmentStats{ByStatus: buckets}
	for _, b := range buckets {
		switch b.Status {
		case models.InvestmentStatusRefunded:
			stats.RefundedAmount += b.TotalAmount
		case models.InvestmentStatusFailed:
			// Failed captures contribute nothing
		default:
			stats.TotalInvested += b.TotalAmount
			stats.TotalExpectedReturn += b.TotalExpectedReturn
			stats.TotalInvestments += b.Count
		}
	}

	projectIDs, err := collection.Distinct(ctx, "projectId", bson.M{
		"userId": userID,
		"status": models.InvestmentStatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count distinct projects: %w", err)
	}
	stats.ProjectsInvested = int64(len(projectIDs))

	return stats, nil
}

// dispatch runs fn on a detached context in the background. Panics and
// errors in notification channels never reach the ledger caller.
func (s *InvestmentService) dispatch(fn func(ctx context.Context)) {
	if s.dispatcher == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("⚠️ Dispatch panic recovered: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		fn(ctx)
	}()
}

// errorCategory buckets an error for the ledger error metric
func errorCategory(err error) string {
	var validationErr *models.ValidationError
	var authErr *models.AuthorizationError
	var notFoundErr *models.NotFoundError
	var stateErr *models.InvalidStateError

	switch {
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &authErr):
		return "authorization"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &stateErr):
		return "invalid_state"
	default:
		return "internal"
	}
}
