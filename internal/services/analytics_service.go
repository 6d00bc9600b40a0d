package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crowdvest/internal/database"
	"crowdvest/internal/models"
)

// DailyRollup is one day of platform activity, persisted by the nightly job
type DailyRollup struct {
	Date             string    `bson:"_id" json:"date"` // YYYY-MM-DD
	InvestedAmount   float64   `bson:"investedAmount" json:"invested_amount"`
	InvestmentsCount int64     `bson:"investmentsCount" json:"investments_count"`
	RefundedAmount   float64   `bson:"refundedAmount" json:"refunded_amount"`
	RefundsCount     int64     `bson:"refundsCount" json:"refunds_count"`
	NewUsers         int64     `bson:"newUsers" json:"new_users"`
	ComputedAt       time.Time `bson:"computedAt" json:"computed_at"`
}

// PlatformOverview is the admin analytics summary
type PlatformOverview struct {
	Projects    *ProjectStats `json:"projects"`
	TotalUsers  int64         `json:"total_users"`
	PaidUsers   int64         `json:"paid_users"`
	Investments struct {
		Total          int64   `json:"total"`
		TotalAmount    float64 `json:"total_amount"`
		RefundedAmount float64 `json:"refunded_amount"`
	} `json:"investments"`
	RecentDays []DailyRollup `json:"recent_days"`
}

// AnalyticsService computes admin reporting aggregates
type AnalyticsService struct {
	mongoDB        *database.MongoDB
	projectService *ProjectService
}

func NewAnalyticsService(mongoDB *database.MongoDB, projectService *ProjectService) *AnalyticsService {
	return &AnalyticsService{mongoDB: mongoDB, projectService: projectService}
}

// Overview assembles the platform summary for the admin dashboard
func (s *AnalyticsService) Overview(ctx context.Context) (*PlatformOverview, error) {
	overview := &PlatformOverview{}

	projectStats, err := s.projectService.Stats(ctx)
	if err != nil {
		return nil, err
	}
	overview.Projects = projectStats

	users := s.mongoDB.Collection(database.CollectionUsers)
	overview.TotalUsers, err = users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	overview.PaidUsers, err = users.CountDocuments(ctx, bson.M{
		"planKey":            bson.M{"$ne": models.PlanFree},
		"subscriptionStatus": models.SubStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count paid users: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := s.mongoDB.Collection(database.CollectionInvestments).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate investments: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Status string  `bson:"_id"`
		Total  float64 `bson:"total"`
		Count  int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode investment totals: %w", err)
	}
	for _, b := range buckets {
		overview.Investments.Total += b.Count
		if b.Status == models.InvestmentStatusRefunded {
			overview.Investments.RefundedAmount += b.Total
		} else if b.Status != models.InvestmentStatusFailed {
			overview.Investments.TotalAmount += b.Total
		}
	}

	overview.RecentDays, err = s.recentRollups(ctx, 7)
	if err != nil {
		return nil, err
	}

	return overview, nil
}

// RollupDay recomputes and stores the rollup for one calendar day (UTC).
// Upserting by date makes the job safe to re-run.
func (s *AnalyticsService) RollupDay(ctx context.Context, day time.Time) (*DailyRollup, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rollup := &DailyRollup{
		Date:       start.Format("2006-01-02"),
		ComputedAt: time.Now(),
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": start, "$lt": end}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := s.mongoDB.Collection(database.CollectionInvestments).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate day %s: %w", rollup.Date, err)
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Status string  `bson:"_id"`
		Total  float64 `bson:"total"`
		Count  int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode day %s: %w", rollup.Date, err)
	}
	for _, b := range buckets {
		switch b.Status {
		case models.InvestmentStatusRefunded:
			rollup.RefundedAmount += b.Total
			rollup.RefundsCount += b.Count
		case models.InvestmentStatusFailed:
		default:
			rollup.InvestedAmount += b.Total
			rollup.InvestmentsCount += b.Count
		}
	}

	rollup.NewUsers, err = s.mongoDB.Collection(database.CollectionUsers).
		CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": start, "$lt": end}})
	if err != nil {
		return nil, fmt.Errorf("failed to count new users for %s: %w", rollup.Date, err)
	}

	_, err = s.mongoDB.Collection(database.CollectionAnalyticsDaily).ReplaceOne(ctx,
		bson.M{"_id": rollup.Date},
		rollup,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store rollup %s: %w", rollup.Date, err)
	}

	return rollup, nil
}

func (s *AnalyticsService) recentRollups(ctx context.Context, days int) ([]DailyRollup, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(days))

	cursor, err := s.mongoDB.Collection(database.CollectionAnalyticsDaily).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query rollups: %w", err)
	}
	defer cursor.Close(ctx)

	rollups := make([]DailyRollup, 0, days)
	if err := cursor.All(ctx, &rollups); err != nil {
		return nil, fmt.Errorf("failed to decode rollups: %w", err)
	}
	return rollups, nil
}
