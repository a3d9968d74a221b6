package types

// SuggestRecipesRequest is the body for the manual-ingredient suggestion endpoint.
type SuggestRecipesRequest struct {
	Ingredients []string `json:"ingredients" binding:"required"`
	MealTypes   []string `json:"meal_types"`
	Count       int      `json:"count"`
}

// ReplacementRequest asks for one more recipe, excluding names already shown.
type ReplacementRequest struct {
	Ingredients  []string `json:"ingredients" binding:"required"`
	MealTypes    []string `json:"meal_types"`
	ExcludeNames []string `json:"exclude_names"`
}

// MarketRequest asks for recipes with ingredient lists split into have / to-buy.
type MarketRequest struct {
	Ingredients []string `json:"ingredients" binding:"required"`
	MealTypes   []string `json:"meal_types"`
}

// IdentifyPhotosRequest carries base64-encoded ingredient photos.
type IdentifyPhotosRequest struct {
	Photos []string `json:"photos" binding:"required"`
}

// ClassifyPhotoRequest carries one base64-encoded photo.
type ClassifyPhotoRequest struct {
	Photo string `json:"photo" binding:"required"`
}

// RecipeFromPhotoRequest asks for a full recipe reconstructed from a dish photo.
type RecipeFromPhotoRequest struct {
	Photo string `json:"photo" binding:"required"`
}

// AdjustServingsRequest rescales a recipe's ingredient quantities.
type AdjustServingsRequest struct {
	Recipe          Recipe `json:"recipe" binding:"required"`
	CurrentServings int    `json:"current_servings" binding:"required"`
	TargetServings  int    `json:"target_servings" binding:"required"`
}

// RecipeQuestionRequest is a free-text follow-up question about a recipe.
type RecipeQuestionRequest struct {
	Recipe   Recipe `json:"recipe" binding:"required"`
	Question string `json:"question" binding:"required"`
}

// TechniqueRequest asks for a short explanation of a cooking technique.
type TechniqueRequest struct {
	Term string `json:"term" binding:"required"`
}

// UpdateSettingsRequest replaces the caller's settings wholesale.
type UpdateSettingsRequest struct {
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
}
