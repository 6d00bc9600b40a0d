package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"crowdvest/internal/database"
	"crowdvest/internal/models"
)

// planCacheEntry stores a cached plan key with its fetch time for TTL
// invalidation
type planCacheEntry struct {
	planKey  string
	cachedAt time.Time
}

// PlanService resolves a user's effective plan tier and answers
// feature-policy questions. The policy table itself is static
// (models.FeaturesFor); this service adds the per-user tier lookup with a
// short-lived cache so gating does not hit the store on every request.
type PlanService struct {
	mongoDB    *database.MongoDB
	cache      map[string]planCacheEntry
	mu         sync.RWMutex
	defaultTTL time.Duration
}

// NewPlanService creates a new plan service
func NewPlanService(mongoDB *database.MongoDB) *PlanService {
	return &PlanService{
		mongoDB:    mongoDB,
		cache:      make(map[string]planCacheEntry),
		defaultTTL: 5 * time.Minute,
	}
}

// PlanFor returns the effective plan key for a user. Unknown users and
// lookup failures resolve to the free tier.
func (s *PlanService) PlanFor(ctx context.Context, userID string) string {
	now := time.Now()

	s.mu.RLock()
	if entry, ok := s.cache[userID]; ok && now.Sub(entry.cachedAt) <= s.defaultTTL {
		s.mu.RUnlock()
		return entry.planKey
	}
	s.mu.RUnlock()

	return s.fetchAndCachePlan(ctx, userID)
}

// fetchAndCachePlan fetches the plan from the users collection and caches it
func (s *PlanService) fetchAndCachePlan(ctx context.Context, userID string) string {
	planKey := models.PlanFree

	if s.mongoDB != nil {
		var user models.User
		err := s.mongoDB.Collection(database.CollectionUsers).
			FindOne(ctx, bson.M{"_id": objectIDOrZero(userID)}).
			Decode(&user)
		if err == nil {
			planKey = user.EffectivePlan(time.Now())
		}
	}

	s.mu.Lock()
	s.cache[userID] = planCacheEntry{planKey: planKey, cachedAt: time.Now()}
	s.mu.Unlock()

	return planKey
}

// FeaturesFor returns the feature set for a user's effective plan
func (s *PlanService) FeaturesFor(ctx context.Context, userID string) models.PlanFeatures {
	return models.FeaturesFor(s.PlanFor(ctx, userID))
}

// InvalidateCache removes a user from the cache (call when their tier changes)
func (s *PlanService) InvalidateCache(userID string) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}
