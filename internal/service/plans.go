package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

const planTTL = 24 * time.Hour

// PlanStore keeps weekly plans a user chose to keep for the day. Plans are
// ephemeral by design; saved ones live in Redis with a TTL rather than in the
// database.
type PlanStore struct {
	redis *redis.Client
}

func NewPlanStore(redisClient *redis.Client) *PlanStore {
	return &PlanStore{redis: redisClient}
}

// ErrPlanStoreUnavailable is returned when Redis is not configured.
var ErrPlanStoreUnavailable = errors.New("plan storage is unavailable")

// Save stores the plan under a fresh id scoped to the user.
func (s *PlanStore) Save(ctx context.Context, userID uuid.UUID, plan *types.WeeklyPlan) error {
	if s.redis == nil {
		return ErrPlanStoreUnavailable
	}
	plan.ID = uuid.New().String()

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	key := planKey(userID, plan.ID)
	if err := s.redis.Set(ctx, key, data, planTTL).Err(); err != nil {
		return fmt.Errorf("failed to save plan to Redis: %w", err)
	}
	return nil
}

// Get retrieves a saved plan.
func (s *PlanStore) Get(ctx context.Context, userID uuid.UUID, planID string) (*types.WeeklyPlan, error) {
	if s.redis == nil {
		return nil, ErrPlanStoreUnavailable
	}
	data, err := s.redis.Get(ctx, planKey(userID, planID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get plan from Redis: %w", err)
	}

	var plan types.WeeklyPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &plan, nil
}

// Delete removes a saved plan.
func (s *PlanStore) Delete(ctx context.Context, userID uuid.UUID, planID string) error {
	if s.redis == nil {
		return ErrPlanStoreUnavailable
	}
	if err := s.redis.Del(ctx, planKey(userID, planID)).Err(); err != nil {
		return fmt.Errorf("failed to delete plan from Redis: %w", err)
	}
	return nil
}

func planKey(userID uuid.UUID, planID string) string {
	return fmt.Sprintf("plan:weekly:%s:%s", userID, planID)
}
