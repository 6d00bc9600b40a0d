package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crowdvest/internal/database"
	"crowdvest/internal/models"
)

// ProjectService manages project listings. Funding counters are owned by the
// investment ledger; this service never touches fundedAmount or
// totalInvestors.
type ProjectService struct {
	mongoDB *database.MongoDB
}

func NewProjectService(mongoDB *database.MongoDB) *ProjectService {
	return &ProjectService{mongoDB: mongoDB}
}

// ProjectStats are platform-wide aggregates for the admin overview
type ProjectStats struct {
	TotalProjects  int64   `json:"total_projects"`
	ActiveProjects int64   `json:"active_projects"`
	TotalFunded    float64 `json:"total_funded"`
	TotalTarget    float64 `json:"total_target"`
	Categories     int     `json:"categories"`
}

// Create inserts a new project. New projects start active and unfunded.
func (s *ProjectService) Create(ctx context.Context, project *models.Project, createdBy string) (*models.Project, error) {
	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	project.ID = primitive.NewObjectID()
	project.FundedAmount = 0
	project.TotalInvestors = 0
	project.CreatedBy = createdBy
	project.CreatedAt = now
	project.UpdatedAt = now

	if _, err := s.mongoDB.Collection(database.CollectionProjects).InsertOne(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetByID loads a single project
func (s *ProjectService) GetByID(ctx context.Context, projectID string) (*models.Project, error) {
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
	return &project, nil
}

// Update applies editable attributes. Funding counters and status transitions
// driven by funding stay untouched.
func (s *ProjectService) Update(ctx context.Context, projectID string, updated *models.Project) (*models.Project, error) {
	projectOID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, models.NewNotFoundError("Project")
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	set := bson.M{
		"title":          updated.Title,
		"description":    updated.Description,
		"category":       updated.Category,
		"minInvestment":  updated.MinInvestment,
		"roiPercent":     updated.ROIPercent,
		"targetAmount":   updated.TargetAmount,
		"durationMonths": updated.DurationMonths,
		"isPremium":      updated.IsPremium,
		"updatedAt":      time.Now(),
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var project models.Project
	if err := s.mongoDB.Collection(database.CollectionProjects).
		FindOneAndUpdate(ctx, bson.M{"_id": projectOID}, bson.M{"$set": set}, opts).
		Decode(&project); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Project")
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return &project, nil
}

// Close stops a project from accepting further investments. Closing is
// manual and distinct from the funded transition to completed.
func (s *ProjectService) Close(ctx context.Context, projectID string) (*models.Project, error) {
	projectOID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, models.NewNotFoundError("Project")
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var project models.Project
	err = s.mongoDB.Collection(database.CollectionProjects).
		FindOneAndUpdate(ctx,
			bson.M{"_id": projectOID, "status": models.ProjectStatusActive},
			bson.M{"$set": bson.M{"status": models.ProjectStatusClosed, "updatedAt": time.Now()}},
			opts,
		).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either missing or not active; report which
			if _, getErr := s.GetByID(ctx, projectID); getErr != nil {
				return nil, getErr
			}
			return nil, models.NewInvalidStateError("Only active projects can be closed")
		}
		return nil, fmt.Errorf("failed to close project: %w", err)
	}
	return &project, nil
}

// Delete removes a project that has no investments. Projects with recorded
// investments are closed instead, never deleted.
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	projectOID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return models.NewNotFoundError("Project")
	}

	count, err := s.mongoDB.Collection(database.CollectionInvestments).
		CountDocuments(ctx, bson.M{"projectId": projectOID})
	if err != nil {
		return fmt.Errorf("failed to count investments: %w", err)
	}
	if count > 0 {
		return models.NewInvalidStateError("Projects with investments cannot be deleted, close it instead")
	}

	res, err := s.mongoDB.Collection(database.CollectionProjects).
		DeleteOne(ctx, bson.M{"_id": projectOID})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Project")
	}
	return nil
}

// Stats aggregates platform-wide project totals
func (s *ProjectService) Stats(ctx context.Context) (*ProjectStats, error) {
	collection := s.mongoDB.Collection(database.CollectionProjects)

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"total":       bson.M{"$sum": 1},
			"totalFunded": bson.M{"$sum": "$fundedAmount"},
			"totalTarget": bson.M{"$sum": "$targetAmount"},
			"active": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.ProjectStatusActive}}, 1, 0},
			}},
		}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate projects: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total       int64   `bson:"total"`
		TotalFunded float64 `bson:"totalFunded"`
		TotalTarget float64 `bson:"totalTarget"`
		Active      int64   `bson:"active"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode project stats: %w", err)
	}

	stats := &ProjectStats{}
	if len(rows) > 0 {
		stats.TotalProjects = rows[0].Total
		stats.ActiveProjects = rows[0].Active
		stats.TotalFunded = rows[0].TotalFunded
		stats.TotalTarget = rows[0].TotalTarget
	}

	categories, err := collection.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	stats.Categories = len(categories)

	return stats, nil
}

// Categories lists the distinct category tags in use
func (s *ProjectService) Categories(ctx context.Context) ([]string, error) {
	values, err := s.mongoDB.Collection(database.CollectionProjects).
		Distinct(ctx, "category", bson.M{"category": bson.M{"$ne": ""}})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	return categories, nil
}
