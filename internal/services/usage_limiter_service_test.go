package services

import (
	"testing"
	"time"

	"crowdvest/internal/models"
)

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", value, err)
	}
	return parsed
}

func TestUsageKeyIsMonthScoped(t *testing.T) {
	jan := usageKey("u1", UsageSimulations, mustParseTime(t, "2026-01-15T10:00:00Z"))
	feb := usageKey("u1", UsageSimulations, mustParseTime(t, "2026-02-01T00:00:00Z"))

	if jan == feb {
		t.Errorf("keys for different months collide: %s", jan)
	}
	if jan != "usage:u1:simulations:2026-01" {
		t.Errorf("unexpected key format: %s", jan)
	}
}

func TestNextPlanWithMoreOf(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		limit    int
		want     string
	}{
		{"free simulation limit upgrades to basic", UsageSimulations, 5, models.PlanBasic},
		{"basic view limit upgrades to plus", UsageProjectViews, 50, models.PlanPlus},
		{"plus simulation limit upgrades to premium", UsageSimulations, 100, models.PlanPremium},
		{"zero limit finds first nonzero tier", UsageProjectViews, 0, models.PlanFree},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextPlanWithMoreOf(tc.resource, tc.limit); got != tc.want {
				t.Errorf("nextPlanWithMoreOf(%s, %d) = %s, want %s", tc.resource, tc.limit, got, tc.want)
			}
		})
	}
}
