package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

func TestPlanStore(t *testing.T) {
	ctx := context.Background()
	store := NewPlanStore(testRedis(t))
	userID := uuid.New()

	plan := &types.WeeklyPlan{
		ShoppingList: []string{"1kg arroz", "12 ovos"},
		Days: []types.DayPlan{
			{Day: "Monday", Meals: []types.PlannedMeal{
				{MealType: "lunch", Recipe: types.Recipe{ID: uuid.New(), Name: "Arroz com ovo"}},
			}},
		},
	}

	t.Run("save assigns an id and round-trips", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, userID, plan))
		require.NotEmpty(t, plan.ID)

		got, err := store.Get(ctx, userID, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, plan.ShoppingList, got.ShoppingList)
		require.Len(t, got.Days, 1)
		assert.Equal(t, "Arroz com ovo", got.Days[0].Meals[0].Recipe.Name)
	})

	t.Run("plans are scoped per user", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New(), plan.ID)
		assert.Error(t, err)
	})

	t.Run("delete removes the plan", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, userID, plan.ID))
		_, err := store.Get(ctx, userID, plan.ID)
		assert.Error(t, err)
	})
}

func TestPlanStoreWithoutRedis(t *testing.T) {
	store := NewPlanStore(nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, uuid.New(), &types.WeeklyPlan{}), ErrPlanStoreUnavailable)
	_, err := store.Get(ctx, uuid.New(), "x")
	assert.ErrorIs(t, err, ErrPlanStoreUnavailable)
	assert.ErrorIs(t, store.Delete(ctx, uuid.New(), "x"), ErrPlanStoreUnavailable)
}
