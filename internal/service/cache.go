package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kiloapp/kilo-v2/backend/internal/models"
	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

const suggestionTTL = 24 * time.Hour

// suggestionCache short-circuits repeated initial suggestion requests. Keys are
// order-independent over ingredients and meal types; replacement and market
// requests are never cached.
type suggestionCache struct {
	redis *redis.Client
}

// promptFields is the subset of the settings row that influences prompt
// composition. The row also carries the usage counter and timestamps, which
// change between otherwise identical requests and must never enter the key.
type promptFields struct {
	Vegetarian        bool     `json:"vegetarian"`
	Vegan             bool     `json:"vegan"`
	GlutenFree        bool     `json:"gluten_free"`
	LactoseFree       bool     `json:"lactose_free"`
	LowCarb           bool     `json:"low_carb"`
	Allergies         string   `json:"allergies"`
	EffortFilters     []string `json:"effort_filters"`
	PreferredCuisines []string `json:"preferred_cuisines"`
	SpiceLevel        string   `json:"spice_level"`
	Equipment         []string `json:"equipment"`
	PantryStaples     []string `json:"pantry_staples"`
	FlavorKeywords    []string `json:"flavor_keywords"`
}

// Key derives the cache key from the request inputs and the settings fields
// that influence prompt composition. Sorting makes ["a","b"] and ["b","a"] hit
// the same entry.
func (c *suggestionCache) Key(settings *models.UserSettings, ingredients, mealTypes []string) string {
	sortedIngredients := append([]string{}, ingredients...)
	sort.Strings(sortedIngredients)
	sortedMeals := append([]string{}, mealTypes...)
	sort.Strings(sortedMeals)

	var prefs promptFields
	if settings != nil {
		prefs = promptFields{
			Vegetarian:        settings.Vegetarian,
			Vegan:             settings.Vegan,
			GlutenFree:        settings.GlutenFree,
			LactoseFree:       settings.LactoseFree,
			LowCarb:           settings.LowCarb,
			Allergies:         settings.Allergies,
			EffortFilters:     settings.EffortFilters,
			PreferredCuisines: settings.PreferredCuisines,
			SpiceLevel:        settings.SpiceLevel,
			Equipment:         settings.Equipment,
			PantryStaples:     settings.PantryStaples,
			FlavorKeywords:    settings.FlavorKeywords,
		}
	}

	payload, _ := json.Marshal(struct {
		Ingredients []string     `json:"ingredients"`
		MealTypes   []string     `json:"meal_types"`
		Settings    promptFields `json:"settings"`
	}{sortedIngredients, sortedMeals, prefs})

	sum := sha256.Sum256(payload)
	return "recipe:suggestions:" + hex.EncodeToString(sum[:])
}

func (c *suggestionCache) Get(ctx context.Context, key string) ([]types.Recipe, bool) {
	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var recipes []types.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, false
	}
	return recipes, true
}

func (c *suggestionCache) Set(ctx context.Context, key string, recipes []types.Recipe) error {
	if c.redis == nil || len(recipes) == 0 {
		return nil
	}

	data, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	return c.redis.Set(ctx, key, data, suggestionTTL).Err()
}

// ErrEmptyInput is returned when a request list has no usable entries. It is
// client input, not a server fault.
var ErrEmptyInput = errors.New("at least one item is required")

// normalizeList lowercases and trims entries, dropping empties. Used before
// validation and key derivation so casing differences do not split cache
// entries.
func normalizeList(items []string) ([]string, error) {
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(strings.ToLower(item))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyInput
	}
	return out, nil
}
