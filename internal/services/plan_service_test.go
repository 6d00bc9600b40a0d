package services

import (
	"context"
	"testing"

	"crowdvest/internal/models"
)

func TestNewPlanService(t *testing.T) {
	service := NewPlanService(nil)
	if service == nil {
		t.Fatal("Expected non-nil plan service")
	}
}

func TestPlanService_PlanFor_DefaultsToFree(t *testing.T) {
	service := NewPlanService(nil)
	ctx := context.Background()

	plan := service.PlanFor(ctx, "507f1f77bcf86cd799439011")
	if plan != models.PlanFree {
		t.Errorf("Expected 'free' plan, got %s", plan)
	}
}

func TestPlanService_FeaturesFor_FreeTier(t *testing.T) {
	service := NewPlanService(nil)
	ctx := context.Background()

	features := service.FeaturesFor(ctx, "507f1f77bcf86cd799439011")

	if !features.BasicFilters {
		t.Error("free tier should grant basic filters")
	}
	if features.ROIRange {
		t.Error("free tier should not grant ROI range filter")
	}
	if features.SavedSearches != 0 {
		t.Errorf("free tier saved searches = %d, want 0", features.SavedSearches)
	}
}

func TestPlanService_CacheInvalidation(t *testing.T) {
	service := NewPlanService(nil)
	ctx := context.Background()

	// Populate the cache, then invalidate; both lookups resolve to free
	// without a store but must not panic or return stale entries
	userID := "507f1f77bcf86cd799439011"
	_ = service.PlanFor(ctx, userID)

	service.mu.RLock()
	_, cached := service.cache[userID]
	service.mu.RUnlock()
	if !cached {
		t.Fatal("expected plan to be cached after lookup")
	}

	service.InvalidateCache(userID)

	service.mu.RLock()
	_, cached = service.cache[userID]
	service.mu.RUnlock()
	if cached {
		t.Error("expected cache entry to be removed")
	}
}
