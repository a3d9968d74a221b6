package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kiloapp/kilo-v2/backend/internal/models"
)

func TestPreferences(t *testing.T) {
	t.Run("empty settings contribute nothing", func(t *testing.T) {
		assert.Equal(t, "", Preferences(&models.UserSettings{}))
		assert.Equal(t, "", Preferences(nil))
	})

	t.Run("vegan supersedes vegetarian", func(t *testing.T) {
		got := Preferences(&models.UserSettings{Vegetarian: true, Vegan: true})
		assert.Contains(t, got, "vegan")
		assert.NotContains(t, got, "vegetarian")
	})

	t.Run("combines dietary flags", func(t *testing.T) {
		got := Preferences(&models.UserSettings{Vegetarian: true, GlutenFree: true, LowCarb: true})
		assert.Contains(t, got, "vegetarian, gluten-free, low-carb")
	})

	t.Run("includes allergies and cuisines", func(t *testing.T) {
		got := Preferences(&models.UserSettings{
			Allergies:         "amendoim, camarão",
			PreferredCuisines: models.JSONBStringArray{"italiana", "japonesa"},
		})
		assert.Contains(t, got, "amendoim, camarão")
		assert.Contains(t, got, "italiana, japonesa")
	})

	t.Run("medium spice level contributes nothing", func(t *testing.T) {
		got := Preferences(&models.UserSettings{SpiceLevel: "medium"})
		assert.Equal(t, "", got)
	})

	t.Run("effort filters render as constraints", func(t *testing.T) {
		got := Preferences(&models.UserSettings{EffortFilters: models.JSONBStringArray{"quick", "one_pot"}})
		assert.Contains(t, got, "30 minutes or less")
		assert.Contains(t, got, "single pot or pan")
	})

	t.Run("is deterministic", func(t *testing.T) {
		s := &models.UserSettings{
			Vegan:          true,
			Allergies:      "nozes",
			SpiceLevel:     "hot",
			FlavorKeywords: models.JSONBStringArray{"smoky", "citrusy"},
		}
		assert.Equal(t, Preferences(s), Preferences(s))
	})
}

func TestSuggestion(t *testing.T) {
	t.Run("defaults to three recipes", func(t *testing.T) {
		got := Suggestion(&models.UserSettings{}, []string{"ovo", "arroz"}, nil, 0)
		assert.True(t, strings.HasPrefix(got, "Suggest 3 recipes"), got)
		assert.Contains(t, got, "ovo, arroz")
	})

	t.Run("honors explicit count and meal types", func(t *testing.T) {
		got := Suggestion(&models.UserSettings{}, []string{"ovo"}, []string{"lunch", "dinner"}, 5)
		assert.True(t, strings.HasPrefix(got, "Suggest 5 recipes"), got)
		assert.Contains(t, got, "lunch, dinner")
	})

	t.Run("includes pantry staples", func(t *testing.T) {
		s := &models.UserSettings{PantryStaples: models.JSONBStringArray{"sal", "azeite"}}
		got := Suggestion(s, []string{"frango"}, nil, 3)
		assert.Contains(t, got, "sal, azeite")
	})
}
