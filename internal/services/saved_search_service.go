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

// SavedSearchService stores named search requests, capped by plan tier
type SavedSearchService struct {
	mongoDB       *database.MongoDB
	planService   *PlanService
	searchService *SearchService
}

func NewSavedSearchService(mongoDB *database.MongoDB, planService *PlanService, searchService *SearchService) *SavedSearchService {
	return &SavedSearchService{
		mongoDB:       mongoDB,
		planService:   planService,
		searchService: searchService,
	}
}

// Save stores a search for later. The request is validated and gated against
// the user's current plan first, so a saved search is always runnable at the
// tier that saved it.
func (s *SavedSearchService) Save(ctx context.Context, userID, name string, request models.SearchRequest) (*models.SavedSearch, error) {
	if name == "" {
		return nil, models.NewFieldValidationError("Invalid saved search", models.FieldError{
			Field: "name", Message: "name is required",
		})
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}
	request.Normalize()

	features := s.planService.FeaturesFor(ctx, userID)
	if err := gateRequest(request, features); err != nil {
		return nil, err
	}

	if features.SavedSearches >= 0 {
		collection := s.mongoDB.Collection(database.CollectionSavedSearches)
		count, err := collection.CountDocuments(ctx, bson.M{"userId": userID})
		if err != nil {
			return nil, fmt.Errorf("failed to count saved searches: %w", err)
		}
		if count >= int64(features.SavedSearches) {
			return nil, models.NewPlanRequiredError(
				fmt.Sprintf("Saved search limit of %d reached", features.SavedSearches),
				nextPlanWithMoreSavedSearches(features.SavedSearches),
			)
		}
	}

	saved := &models.SavedSearch{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Name:      name,
		Request:   request,
		CreatedAt: time.Now(),
	}

	if _, err := s.mongoDB.Collection(database.CollectionSavedSearches).InsertOne(ctx, saved); err != nil {
		return nil, fmt.Errorf("failed to store saved search: %w", err)
	}
	return saved, nil
}

// List returns all the user's saved searches, newest first
func (s *SavedSearchService) List(ctx context.Context, userID string) ([]models.SavedSearch, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.mongoDB.Collection(database.CollectionSavedSearches).
		Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved searches: %w", err)
	}
	defer cursor.Close(ctx)

	searches := make([]models.SavedSearch, 0)
	if err := cursor.All(ctx, &searches); err != nil {
		return nil, fmt.Errorf("failed to decode saved searches: %w", err)
	}
	return searches, nil
}

// Run executes a saved search under the user's current plan. A plan
// downgrade since saving makes the gated dimensions fail the same way an
// ad-hoc search would.
func (s *SavedSearchService) Run(ctx context.Context, userID, savedSearchID string) (*SearchResult, error) {
	saved, err := s.get(ctx, userID, savedSearchID)
	if err != nil {
		return nil, err
	}
	return s.searchService.Search(ctx, userID, saved.Request)
}

// Delete removes a saved search owned by the user
func (s *SavedSearchService) Delete(ctx context.Context, userID, savedSearchID string) error {
	savedOID, err := primitive.ObjectIDFromHex(savedSearchID)
	if err != nil {
		return models.NewNotFoundError("Saved search")
	}

	res, err := s.mongoDB.Collection(database.CollectionSavedSearches).
		DeleteOne(ctx, bson.M{"_id": savedOID, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete saved search: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Saved search")
	}
	return nil
}

func (s *SavedSearchService) get(ctx context.Context, userID, savedSearchID string) (*models.SavedSearch, error) {
	savedOID, err := primitive.ObjectIDFromHex(savedSearchID)
	if err != nil {
		return nil, models.NewNotFoundError("Saved search")
	}

	var saved models.SavedSearch
	err = s.mongoDB.Collection(database.CollectionSavedSearches).
		FindOne(ctx, bson.M{"_id": savedOID, "userId": userID}).Decode(&saved)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Saved search")
		}
		return nil, fmt.Errorf("failed to load saved search: %w", err)
	}
	return &saved, nil
}

func nextPlanWithMoreSavedSearches(limit int) string {
	tiers := []string{models.PlanFree, models.PlanBasic, models.PlanPlus, models.PlanPremium}
	for _, tier := range tiers {
		quota := models.FeaturesFor(tier).SavedSearches
		if quota < 0 || quota > limit {
			return tier
		}
	}
	return models.PlanPremium
}
