package models

// Plan tiers, ordered cheapest to most expensive
const (
	PlanFree    = "free"
	PlanBasic   = "basic"
	PlanPlus    = "plus"
	PlanPremium = "premium"
)

// Search capabilities gated by plan tier
const (
	CapBasicFilters       = "basicFilters"
	CapROIRange           = "roiRange"
	CapAmountRange        = "amountRange"
	CapMultipleCategories = "multipleCategories"
	CapAdvancedSort       = "advancedSort"
	CapDurationFilter     = "durationFilter"
)

// PlanOrder defines the order of plans for comparison
var PlanOrder = map[string]int{
	PlanFree:    0,
	PlanBasic:   1,
	PlanPlus:    2,
	PlanPremium: 3,
}

// PlanFeatures declares the search capabilities and usage limits a plan
// tier unlocks. Limits use -1 for unlimited.
type PlanFeatures struct {
	BasicFilters       bool `json:"basicFilters"`
	ROIRange           bool `json:"roiRange"`
	AmountRange        bool `json:"amountRange"`
	MultipleCategories bool `json:"multipleCategories"`
	AdvancedSort       bool `json:"advancedSort"`
	DurationFilter     bool `json:"durationFilter"`

	ProjectsPerMonth    int `json:"projectsPerMonth"`
	SimulationsPerMonth int `json:"simulationsPerMonth"`
	SavedSearches       int `json:"savedSearches"`
}

// planFeatureTable is the static per-tier feature configuration.
// Loaded once at process start, read-only thereafter.
var planFeatureTable = map[string]PlanFeatures{
	PlanFree: {
		BasicFilters:        true,
		ProjectsPerMonth:    10,
		SimulationsPerMonth: 5,
		SavedSearches:       0,
	},
	PlanBasic: {
		BasicFilters:        true,
		ROIRange:            true,
		AmountRange:         true,
		ProjectsPerMonth:    50,
		SimulationsPerMonth: 25,
		SavedSearches:       3,
	},
	PlanPlus: {
		BasicFilters:        true,
		ROIRange:            true,
		AmountRange:         true,
		MultipleCategories:  true,
		AdvancedSort:        true,
		DurationFilter:      true,
		ProjectsPerMonth:    200,
		SimulationsPerMonth: 100,
		SavedSearches:       10,
	},
	PlanPremium: {
		BasicFilters:        true,
		ROIRange:            true,
		AmountRange:         true,
		MultipleCategories:  true,
		AdvancedSort:        true,
		DurationFilter:      true,
		ProjectsPerMonth:    -1,
		SimulationsPerMonth: -1,
		SavedSearches:       -1,
	},
}

// planRank lists tiers cheapest-first for MinimumPlanFor scans
var planRank = []string{PlanFree, PlanBasic, PlanPlus, PlanPremium}

// FeaturesFor returns the feature set for a plan key. Unknown or empty keys
// resolve to the free tier: fail open to the most restrictive policy, never
// an error.
func FeaturesFor(planKey string) PlanFeatures {
	if features, ok := planFeatureTable[planKey]; ok {
		return features
	}
	return planFeatureTable[PlanFree]
}

// Capability reports whether the feature set grants a single capability flag
func (f PlanFeatures) Capability(capability string) bool {
	switch capability {
	case CapBasicFilters:
		return f.BasicFilters
	case CapROIRange:
		return f.ROIRange
	case CapAmountRange:
		return f.AmountRange
	case CapMultipleCategories:
		return f.MultipleCategories
	case CapAdvancedSort:
		return f.AdvancedSort
	case CapDurationFilter:
		return f.DurationFilter
	default:
		return false
	}
}

// HasCapability looks up a single capability flag, with unknown plan keys
// resolving to the free tier
func HasCapability(planKey, capability string) bool {
	return FeaturesFor(planKey).Capability(capability)
}

// MinimumPlanFor returns the cheapest tier that grants the capability.
// Returns the top tier if no plan grants it.
func MinimumPlanFor(capability string) string {
	for _, tier := range planRank {
		if planFeatureTable[tier].Capability(capability) {
			return tier
		}
	}
	return planRank[len(planRank)-1]
}

// ComparePlans compares two plan keys and returns:
// -1 if from < to (upgrade)
// 0 if from == to (same)
// 1 if from > to (downgrade)
func ComparePlans(from, to string) int {
	fromOrder, fromOk := PlanOrder[from]
	toOrder, toOk := PlanOrder[to]

	if !fromOk || !toOk {
		return 0
	}

	if fromOrder < toOrder {
		return -1
	} else if fromOrder > toOrder {
		return 1
	}
	return 0
}
