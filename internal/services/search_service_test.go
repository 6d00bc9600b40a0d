package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"crowdvest/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestGateRequestByPlan(t *testing.T) {
	tests := []struct {
		name         string
		plan         string
		request      models.SearchRequest
		wantDenied   bool
		wantRequired string
	}{
		{
			name:    "free plan basic filters allowed",
			plan:    models.PlanFree,
			request: models.SearchRequest{Category: "energy", Status: "active", Search: "solar"},
		},
		{
			name:         "free plan roi range denied naming basic",
			plan:         models.PlanFree,
			request:      models.SearchRequest{MinROI: floatPtr(5)},
			wantDenied:   true,
			wantRequired: models.PlanBasic,
		},
		{
			name:         "free plan amount range denied naming basic",
			plan:         models.PlanFree,
			request:      models.SearchRequest{MaxAmount: floatPtr(10000)},
			wantDenied:   true,
			wantRequired: models.PlanBasic,
		},
		{
			name:    "basic plan roi and amount allowed",
			plan:    models.PlanBasic,
			request: models.SearchRequest{MinROI: floatPtr(5), MaxAmount: floatPtr(10000)},
		},
		{
			name:         "basic plan multiple categories denied naming plus",
			plan:         models.PlanBasic,
			request:      models.SearchRequest{Categories: []string{"energy", "tech"}},
			wantDenied:   true,
			wantRequired: models.PlanPlus,
		},
		{
			name:         "basic plan duration range denied naming plus",
			plan:         models.PlanBasic,
			request:      models.SearchRequest{MinDuration: intPtr(6)},
			wantDenied:   true,
			wantRequired: models.PlanPlus,
		},
		{
			name:         "basic plan custom sort denied naming plus",
			plan:         models.PlanBasic,
			request:      models.SearchRequest{SortBy: models.SortByROIPercent, SortOrder: models.SortOrderAsc},
			wantDenied:   true,
			wantRequired: models.PlanPlus,
		},
		{
			name: "plus plan everything allowed",
			plan: models.PlanPlus,
			request: models.SearchRequest{
				Categories:  []string{"energy", "tech"},
				MinROI:      floatPtr(5),
				MaxAmount:   floatPtr(10000),
				MinDuration: intPtr(6),
				SortBy:      models.SortByROIPercent,
			},
		},
		{
			name:    "default sort not treated as advanced",
			plan:    models.PlanFree,
			request: models.SearchRequest{SortBy: models.SortByCreatedAt, SortOrder: models.SortOrderDesc},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := gateRequest(tc.request, models.FeaturesFor(tc.plan))
			if !tc.wantDenied {
				if err != nil {
					t.Fatalf("expected request to pass, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected authorization error, got nil")
			}
			var authErr *models.AuthorizationError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthorizationError, got %T", err)
			}
			if authErr.RequiredPlan != tc.wantRequired {
				t.Errorf("RequiredPlan = %q, want %q", authErr.RequiredPlan, tc.wantRequired)
			}
		})
	}
}

func TestBuildFilterToBSON(t *testing.T) {
	req := models.SearchRequest{
		Categories: []string{"energy", "tech"},
		Category:   "ignored",
		Status:     "active",
		Search:     "solar",
		MinROI:     floatPtr(5),
		MaxROI:     floatPtr(15),
		MinAmount:  floatPtr(1000),
	}

	query := buildFilter(req).ToBSON()

	cat, ok := query["category"].(bson.M)
	if !ok {
		t.Fatalf("category filter = %v, want $in document", query["category"])
	}
	in, ok := cat["$in"].([]string)
	if !ok || len(in) != 2 {
		t.Errorf("categories $in = %v, want two entries", cat["$in"])
	}

	if query["status"] != "active" {
		t.Errorf("status = %v, want active", query["status"])
	}

	if _, ok := query["$or"]; !ok {
		t.Error("expected $or clause for text search")
	}

	roi, ok := query["roiPercent"].(bson.M)
	if !ok {
		t.Fatalf("roiPercent filter missing: %v", query)
	}
	if roi["$gte"] != 5.0 || roi["$lte"] != 15.0 {
		t.Errorf("roiPercent range = %v, want gte 5 lte 15", roi)
	}

	amount, ok := query["targetAmount"].(bson.M)
	if !ok {
		t.Fatalf("targetAmount filter missing: %v", query)
	}
	if amount["$gte"] != 1000.0 {
		t.Errorf("targetAmount $gte = %v, want 1000", amount["$gte"])
	}
	if _, has := amount["$lte"]; has {
		t.Error("targetAmount should have no upper bound")
	}
}

func TestFilterImmutability(t *testing.T) {
	base := ProjectFilter{}.WithStatus("active")
	derived := base.WithCategory("energy")

	baseQuery := base.ToBSON()
	if _, has := baseQuery["category"]; has {
		t.Error("deriving a filter mutated the original")
	}
	if derivedQuery := derived.ToBSON(); derivedQuery["category"] != "energy" {
		t.Errorf("derived category = %v, want energy", derivedQuery["category"])
	}
}

func TestPremiumVisibility(t *testing.T) {
	defaultQuery := ProjectFilter{}.ExcludePremium().ToBSON()
	ne, ok := defaultQuery["isPremium"].(bson.M)
	if !ok || ne["$ne"] != true {
		t.Errorf("default listing isPremium = %v, want $ne true", defaultQuery["isPremium"])
	}

	premiumQuery := ProjectFilter{}.PremiumOnly().ToBSON()
	if premiumQuery["isPremium"] != true {
		t.Errorf("premium listing isPremium = %v, want true", premiumQuery["isPremium"])
	}

	// Advanced search carries no premium exclusion; only the default listing
	// does
	searchQuery := buildFilter(models.SearchRequest{Category: "energy"}).ToBSON()
	if _, has := searchQuery["isPremium"]; has {
		t.Errorf("advanced search filter = %v, want no isPremium clause", searchQuery)
	}
}

func TestSearchRejectsMalformedPagination(t *testing.T) {
	service := NewSearchService(nil, NewPlanService(nil))

	_, err := service.Search(context.Background(), "507f1f77bcf86cd799439011", models.SearchRequest{
		Page:  -5,
		Limit: 900,
	})
	if err == nil {
		t.Fatal("expected out-of-range pagination to be rejected, not clamped")
	}

	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}

	got := map[string]bool{}
	for _, f := range validationErr.Fields {
		got[f.Field] = true
	}
	if !got["page"] || !got["limit"] {
		t.Errorf("field errors = %v, want page and limit", validationErr.Fields)
	}
}

func TestResolveSort(t *testing.T) {
	tests := []struct {
		name        string
		sortBy      string
		sortOrder   string
		wantField   string
		wantDesc    bool
		wantApplied string
	}{
		{"empty defaults", "", "", "createdAt", true, models.SortByCreatedAt},
		{"roi ascending", models.SortByROIPercent, models.SortOrderAsc, "roiPercent", false, models.SortByROIPercent},
		{"funded descending", models.SortByFundedAmount, models.SortOrderDesc, "fundedAmount", true, models.SortByFundedAmount},
		{"progress falls back", models.SortByProgress, models.SortOrderAsc, "createdAt", true, models.SortByCreatedAt},
		{"unknown falls back", "bogus", models.SortOrderAsc, "createdAt", true, models.SortByCreatedAt},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec := ResolveSort(tc.sortBy, tc.sortOrder)
			if spec.Field != tc.wantField || spec.Desc != tc.wantDesc {
				t.Errorf("ResolveSort(%q, %q) = {%s %v}, want {%s %v}",
					tc.sortBy, tc.sortOrder, spec.Field, spec.Desc, tc.wantField, tc.wantDesc)
			}
			if spec.Applied != tc.wantApplied {
				t.Errorf("Applied = %q, want %q", spec.Applied, tc.wantApplied)
			}
		})
	}
}

func TestRegexQuoteMeta(t *testing.T) {
	if got := regexQuoteMeta("a.b*c"); got != `a\.b\*c` {
		t.Errorf("regexQuoteMeta = %q", got)
	}
	if got := regexQuoteMeta("plain text"); got != "plain text" {
		t.Errorf("regexQuoteMeta altered plain text: %q", got)
	}
}
