package services

import (
	"context"
	"fmt"
	"time"

	"crowdvest/internal/models"
)

// Usage resources with monthly plan limits
const (
	UsageProjectViews = "project_views"
	UsageSimulations  = "simulations"
)

// UsageLimiter enforces per-plan monthly quotas with Redis counters.
// Counters are keyed by user, resource, and calendar month and expire on
// their own, so a month rollover needs no reset job.
type UsageLimiter struct {
	redis       *RedisService
	planService *PlanService
}

func NewUsageLimiter(redis *RedisService, planService *PlanService) *UsageLimiter {
	return &UsageLimiter{redis: redis, planService: planService}
}

// UsageSnapshot reports a user's consumption against their plan limits
type UsageSnapshot struct {
	Plan            string `json:"plan"`
	ProjectViews    int64  `json:"project_views"`
	ViewLimit       int    `json:"view_limit"`
	Simulations     int64  `json:"simulations"`
	SimulationLimit int    `json:"simulation_limit"`
}

func usageKey(userID, resource string, now time.Time) string {
	return fmt.Sprintf("usage:%s:%s:%s", userID, resource, now.Format("2006-01"))
}

// Consume counts one use of a resource, rejecting when the user's monthly
// quota is exhausted. A negative limit means unlimited; the counter is still
// kept for the usage snapshot.
func (l *UsageLimiter) Consume(ctx context.Context, userID, resource string) error {
	features := l.planService.FeaturesFor(ctx, userID)

	var limit int
	switch resource {
	case UsageProjectViews:
		limit = features.ProjectsPerMonth
	case UsageSimulations:
		limit = features.SimulationsPerMonth
	default:
		return fmt.Errorf("unknown usage resource %q", resource)
	}

	key := usageKey(userID, resource, time.Now())
	client := l.redis.Client()

	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		// Availability over enforcement: a Redis outage must not take the
		// read path down with it
		return nil
	}
	if count == 1 {
		client.Expire(ctx, key, 32*24*time.Hour)
	}

	if limit >= 0 && count > int64(limit) {
		client.Decr(ctx, key)
		return models.NewPlanRequiredError(
			fmt.Sprintf("Monthly limit of %d %s reached", limit, resource),
			nextPlanWithMoreOf(resource, limit),
		)
	}
	return nil
}

// Snapshot reads the user's current month counters without consuming
func (l *UsageLimiter) Snapshot(ctx context.Context, userID string) (*UsageSnapshot, error) {
	plan := l.planService.PlanFor(ctx, userID)
	features := models.FeaturesFor(plan)
	now := time.Now()
	client := l.redis.Client()

	views, err := client.Get(ctx, usageKey(userID, UsageProjectViews, now)).Int64()
	if err != nil {
		views = 0
	}
	simulations, err := client.Get(ctx, usageKey(userID, UsageSimulations, now)).Int64()
	if err != nil {
		simulations = 0
	}

	return &UsageSnapshot{
		Plan:            plan,
		ProjectViews:    views,
		ViewLimit:       features.ProjectsPerMonth,
		Simulations:     simulations,
		SimulationLimit: features.SimulationsPerMonth,
	}, nil
}

// nextPlanWithMoreOf returns the cheapest tier whose quota for the resource
// exceeds the given limit, defaulting to the top tier
func nextPlanWithMoreOf(resource string, limit int) string {
	tiers := []string{models.PlanFree, models.PlanBasic, models.PlanPlus, models.PlanPremium}
	for _, tier := range tiers {
		features := models.FeaturesFor(tier)
		var quota int
		switch resource {
		case UsageProjectViews:
			quota = features.ProjectsPerMonth
		case UsageSimulations:
			quota = features.SimulationsPerMonth
		}
		if quota < 0 || quota > limit {
			return tier
		}
	}
	return models.PlanPremium
}
