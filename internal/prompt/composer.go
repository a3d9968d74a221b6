// Package prompt assembles the natural-language instruction fragments sent to
// the LLM. All functions are pure: the same settings always yield the same
// string, and absent fields contribute no text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kiloapp/kilo-v2/backend/internal/models"
)

// Preferences renders the dietary and taste constraints from the user's
// settings as one instruction fragment.
func Preferences(s *models.UserSettings) string {
	if s == nil {
		return ""
	}

	var parts []string

	if diets := dietaryFlags(s); len(diets) > 0 {
		parts = append(parts, "The recipes must be strictly "+strings.Join(diets, ", ")+".")
	}

	if a := strings.TrimSpace(s.Allergies); a != "" {
		parts = append(parts, fmt.Sprintf("Never use these allergens or anything derived from them: %s.", a))
	}

	if len(s.PreferredCuisines) > 0 {
		parts = append(parts, "Favor these cuisines when it makes sense: "+strings.Join(s.PreferredCuisines, ", ")+".")
	}

	switch s.SpiceLevel {
	case "mild":
		parts = append(parts, "Keep the spice level mild.")
	case "hot":
		parts = append(parts, "The user enjoys spicy food; lean into heat where it fits.")
	}

	if len(s.FlavorKeywords) > 0 {
		parts = append(parts, "The user has enjoyed recipes with these traits: "+strings.Join(s.FlavorKeywords, ", ")+".")
	}

	if len(s.Equipment) > 0 {
		parts = append(parts, "Available kitchen equipment: "+strings.Join(s.Equipment, ", ")+". Do not require anything else.")
	}

	if frag := effortFragment(s.EffortFilters); frag != "" {
		parts = append(parts, frag)
	}

	return strings.Join(parts, " ")
}

// MealTypes renders the meal-type filter fragment.
func MealTypes(mealTypes []string) string {
	if len(mealTypes) == 0 {
		return ""
	}
	return "Only suggest recipes suitable for: " + strings.Join(mealTypes, ", ") + "."
}

// PantryStaples renders the staples fragment used by suggestion prompts. Staples
// are assumed always available and must never show up as missing ingredients.
func PantryStaples(s *models.UserSettings) string {
	if s == nil || len(s.PantryStaples) == 0 {
		return ""
	}
	return "Assume these pantry staples are always available and never list them as missing: " +
		strings.Join(s.PantryStaples, ", ") + "."
}

// Ingredients renders the user-supplied ingredient list fragment.
func Ingredients(ingredients []string) string {
	if len(ingredients) == 0 {
		return ""
	}
	return "Available ingredients: " + strings.Join(ingredients, ", ") + "."
}

// Suggestion builds the complete user prompt for a recipe suggestion request.
func Suggestion(s *models.UserSettings, ingredients, mealTypes []string, count int) string {
	if count <= 0 {
		count = 3
	}
	parts := []string{fmt.Sprintf("Suggest %d recipes the user can cook right now.", count)}
	for _, frag := range []string{
		Ingredients(ingredients),
		MealTypes(mealTypes),
		PantryStaples(s),
		Preferences(s),
	} {
		if frag != "" {
			parts = append(parts, frag)
		}
	}
	return strings.Join(parts, " ")
}

func dietaryFlags(s *models.UserSettings) []string {
	var diets []string
	if s.Vegan {
		diets = append(diets, "vegan")
	} else if s.Vegetarian {
		diets = append(diets, "vegetarian")
	}
	if s.GlutenFree {
		diets = append(diets, "gluten-free")
	}
	if s.LactoseFree {
		diets = append(diets, "lactose-free")
	}
	if s.LowCarb {
		diets = append(diets, "low-carb")
	}
	return diets
}

func effortFragment(filters []string) string {
	var parts []string
	for _, f := range filters {
		switch f {
		case "quick":
			parts = append(parts, "ready in 30 minutes or less")
		case "one_pot":
			parts = append(parts, "cooked in a single pot or pan")
		case "few_ingredients":
			parts = append(parts, "using at most 6 ingredients")
		case "no_oven":
			parts = append(parts, "without using an oven")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Every recipe must be " + strings.Join(parts, " and ") + "."
}
