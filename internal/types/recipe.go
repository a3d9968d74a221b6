package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// StepList holds ordered preparation steps. Older clients stored the steps as a
// single newline-joined string; current payloads use a string array. Both shapes
// decode into the array form so nothing past this point has to care.
type StepList []string

func (s *StepList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*s = arr
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = StepList{}
		} else {
			*s = StepList{single}
		}
		return nil
	}

	return fmt.Errorf("invalid steps format")
}

// QA is a common question and its answer for a recipe.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GlossaryEntry explains a cooking technique referenced by a recipe.
type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Recipe is the canonical in-memory recipe shape. Exactly one of the ingredient
// list groups is populated depending on the suggestion mode: Ingredients for
// standard suggestions, HaveIngredients/BuyIngredients for market mode.
type Recipe struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Steps           StepList        `json:"steps"`
	Ingredients     []string        `json:"ingredients,omitempty"`
	HaveIngredients []string        `json:"have_ingredients,omitempty"`
	BuyIngredients  []string        `json:"buy_ingredients,omitempty"`
	Servings        int             `json:"servings,omitempty"`
	Calories        string          `json:"calories,omitempty"`
	Time            string          `json:"time,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	CommonQuestions []QA            `json:"common_questions,omitempty"`
	Glossary        []GlossaryEntry `json:"glossary,omitempty"`
}

// PlannedMeal associates a meal type with the recipe planned for it.
type PlannedMeal struct {
	MealType string `json:"meal_type"`
	Recipe   Recipe `json:"recipe"`
}

// DayPlan is one day of a weekly plan.
type DayPlan struct {
	Day   string        `json:"day"`
	Meals []PlannedMeal `json:"meals"`
}

// WeeklyPlan is a full week of planned meals plus one consolidated shopping
// list. Plans are session-scoped unless the user saves them.
type WeeklyPlan struct {
	ID           string    `json:"id,omitempty"`
	ShoppingList []string  `json:"shopping_list"`
	Days         []DayPlan `json:"days"`
}
