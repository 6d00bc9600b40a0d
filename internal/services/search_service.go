package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo/options"

	"crowdvest/internal/database"
	"crowdvest/internal/models"
)

// ProjectView is a project enriched with its derived funding progress
type ProjectView struct {
	models.Project
	ProgressPercent float64 `json:"progress_percent"`
}

// SearchResult is a page of matching projects plus the plan features the
// query ran under and the ordering that was actually applied
type SearchResult struct {
	Items       []ProjectView       `json:"items"`
	Pagination  models.Pagination   `json:"pagination"`
	Features    models.PlanFeatures `json:"features"`
	SortApplied string              `json:"sort_applied"`
}

// SearchService runs plan-gated project searches
type SearchService struct {
	mongoDB     *database.MongoDB
	planService *PlanService
}

func NewSearchService(mongoDB *database.MongoDB, planService *PlanService) *SearchService {
	return &SearchService{mongoDB: mongoDB, planService: planService}
}

// gateRequest rejects any filter dimension the plan does not grant. Gated
// dimensions fail loudly with the cheapest plan that would allow them; they
// are never silently dropped.
func gateRequest(req models.SearchRequest, features models.PlanFeatures) error {
	type gate struct {
		used       bool
		capability string
	}

	usesBasic := req.Category != "" || req.Status != "" || req.Search != ""

	gates := []gate{
		{usesBasic, models.CapBasicFilters},
		{len(req.Categories) > 0, models.CapMultipleCategories},
		{req.MinROI != nil || req.MaxROI != nil, models.CapROIRange},
		{req.MinAmount != nil || req.MaxAmount != nil, models.CapAmountRange},
		{req.MinDuration != nil || req.MaxDuration != nil, models.CapDurationFilter},
		{!req.IsDefaultSort(), models.CapAdvancedSort},
	}

	for _, g := range gates {
		if g.used && !features.Capability(g.capability) {
			if m := GetMetrics(); m != nil {
				m.SearchDenied.WithLabelValues(g.capability).Inc()
			}
			message := fmt.Sprintf("Your plan does not include the %s filter", g.capability)
			return models.NewPlanRequiredError(message, models.MinimumPlanFor(g.capability))
		}
	}
	return nil
}

// buildFilter translates an already-gated request into a filter specification
func buildFilter(req models.SearchRequest) ProjectFilter {
	filter := ProjectFilter{}

	if len(req.Categories) > 0 {
		filter = filter.WithCategories(req.Categories)
	} else if req.Category != "" {
		filter = filter.WithCategory(req.Category)
	}
	if req.Status != "" {
		filter = filter.WithStatus(req.Status)
	}
	if req.Search != "" {
		filter = filter.WithText(req.Search)
	}
	filter = filter.WithROIRange(req.MinROI, req.MaxROI)
	filter = filter.WithAmountRange(req.MinAmount, req.MaxAmount)
	filter = filter.WithDurationRange(req.MinDuration, req.MaxDuration)

	return filter
}

// Search executes a plan-gated search for the given user
func (s *SearchService) Search(ctx context.Context, userID string, req models.SearchRequest) (*SearchResult, error) {
	started := time.Now()
	if m := GetMetrics(); m != nil {
		m.SearchRequests.Inc()
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Normalize()

	features := s.planService.FeaturesFor(ctx, userID)
	if err := gateRequest(req, features); err != nil {
		return nil, err
	}

	filter := buildFilter(req)
	sort := ResolveSort(req.SortBy, req.SortOrder)

	result, err := s.runQuery(ctx, filter, sort, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}
	result.Features = features

	if m := GetMetrics(); m != nil {
		m.SearchLatency.Observe(time.Since(started).Seconds())
	}
	return result, nil
}

// List returns the default project listing, newest first, with premium
// projects excluded. Premium visibility goes through ListPremium or through
// an explicit advanced search.
func (s *SearchService) List(ctx context.Context, userID string, page, limit int) (*SearchResult, error) {
	req := models.SearchRequest{Page: page, Limit: limit}
	req.Normalize()

	filter := ProjectFilter{}.ExcludePremium()
	sort := ResolveSort(models.SortByCreatedAt, models.SortOrderDesc)

	result, err := s.runQuery(ctx, filter, sort, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}
	result.Features = s.planService.FeaturesFor(ctx, userID)
	return result, nil
}

// ListPremium returns the premium project listing. This tier is not ordered:
// only the premium plan itself may see it.
func (s *SearchService) ListPremium(ctx context.Context, userID string, page, limit int) (*SearchResult, error) {
	plan := s.planService.PlanFor(ctx, userID)
	if plan != models.PlanPremium {
		if m := GetMetrics(); m != nil {
			m.SearchDenied.WithLabelValues("premiumListing").Inc()
		}
		return nil, models.NewPlanRequiredError("Premium projects are reserved for the premium plan", models.PlanPremium)
	}

	req := models.SearchRequest{Page: page, Limit: limit}
	req.Normalize()

	filter := ProjectFilter{}.PremiumOnly()
	sort := ResolveSort(models.SortByCreatedAt, models.SortOrderDesc)

	result, err := s.runQuery(ctx, filter, sort, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}
	result.Features = s.planService.FeaturesFor(ctx, userID)
	return result, nil
}

func (s *SearchService) runQuery(ctx context.Context, filter ProjectFilter, sort SortSpec, page, limit int) (*SearchResult, error) {
	collection := s.mongoDB.Collection(database.CollectionProjects)
	query := filter.ToBSON()

	total, err := collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	skip := int64((page - 1) * limit)
	findOpts := options.Find().
		SetSort(sort.ToBSON()).
		SetSkip(skip).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}

	items := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		items = append(items, ProjectView{Project: p, ProgressPercent: p.ProgressPercent()})
	}

	return &SearchResult{
		Items:       items,
		Pagination:  models.NewPagination(page, limit, total),
		SortApplied: sort.Applied,
	}, nil
}
