package models

import "testing"

func TestFeaturesFor_UnknownPlanFallsBackToFree(t *testing.T) {
	free := FeaturesFor(PlanFree)

	for _, key := range []string{"", "unknown-plan", "enterprise", "FREE"} {
		t.Run("key="+key, func(t *testing.T) {
			got := FeaturesFor(key)
			if got != free {
				t.Errorf("FeaturesFor(%q) = %+v, want free tier features", key, got)
			}
		})
	}
}

func TestHasCapability_UnknownPlanMatchesFree(t *testing.T) {
	caps := []string{
		CapBasicFilters, CapROIRange, CapAmountRange,
		CapMultipleCategories, CapAdvancedSort, CapDurationFilter,
	}

	for _, cap := range caps {
		t.Run(cap, func(t *testing.T) {
			if HasCapability("unknown-plan", cap) != HasCapability(PlanFree, cap) {
				t.Errorf("HasCapability('unknown-plan', %s) != HasCapability('free', %s)", cap, cap)
			}
		})
	}
}

func TestHasCapability_Gating(t *testing.T) {
	tests := []struct {
		plan       string
		capability string
		expected   bool
	}{
		{PlanFree, CapBasicFilters, true},
		{PlanFree, CapROIRange, false},
		{PlanFree, CapAdvancedSort, false},
		{PlanBasic, CapROIRange, true},
		{PlanBasic, CapAmountRange, true},
		{PlanBasic, CapMultipleCategories, false},
		{PlanBasic, CapDurationFilter, false},
		{PlanPlus, CapMultipleCategories, true},
		{PlanPlus, CapAdvancedSort, true},
		{PlanPlus, CapDurationFilter, true},
		{PlanPremium, CapAdvancedSort, true},
	}

	for _, tt := range tests {
		t.Run(tt.plan+"/"+tt.capability, func(t *testing.T) {
			if got := HasCapability(tt.plan, tt.capability); got != tt.expected {
				t.Errorf("HasCapability(%s, %s) = %v, want %v", tt.plan, tt.capability, got, tt.expected)
			}
		})
	}
}

func TestMinimumPlanFor(t *testing.T) {
	tests := []struct {
		capability string
		expected   string
	}{
		{CapBasicFilters, PlanFree},
		{CapROIRange, PlanBasic},
		{CapAmountRange, PlanBasic},
		{CapMultipleCategories, PlanPlus},
		{CapAdvancedSort, PlanPlus},
		{CapDurationFilter, PlanPlus},
		{"no-such-capability", PlanPremium}, // defensive default: top tier
	}

	for _, tt := range tests {
		t.Run(tt.capability, func(t *testing.T) {
			if got := MinimumPlanFor(tt.capability); got != tt.expected {
				t.Errorf("MinimumPlanFor(%s) = %s, want %s", tt.capability, got, tt.expected)
			}
		})
	}
}

func TestComparePlans(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		expected int
	}{
		{"free to basic is upgrade", PlanFree, PlanBasic, -1},
		{"free to premium is upgrade", PlanFree, PlanPremium, -1},
		{"plus to basic is downgrade", PlanPlus, PlanBasic, 1},
		{"premium to free is downgrade", PlanPremium, PlanFree, 1},
		{"same tier", PlanPlus, PlanPlus, 0},
		{"unknown tier treated as same", "gold", PlanPlus, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComparePlans(tt.from, tt.to); got != tt.expected {
				t.Errorf("ComparePlans(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestPlanFeatures_Limits(t *testing.T) {
	if FeaturesFor(PlanPremium).SimulationsPerMonth != -1 {
		t.Error("premium simulations should be unlimited (-1)")
	}
	if FeaturesFor(PlanFree).SavedSearches != 0 {
		t.Error("free tier should not allow saved searches")
	}
}
