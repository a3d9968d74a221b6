package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kiloapp/kilo-v2/backend/internal/models"
	"github.com/kiloapp/kilo-v2/backend/internal/prompt"
	"github.com/kiloapp/kilo-v2/backend/internal/safety"
	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

const recipeListSystemPrompt = `You are a professional chef. Respond only with JSON of the form:
{
    "recipes": [
        {
            "name": "Recipe name",
            "description": "One-sentence description",
            "steps": ["Step 1 ...", "Step 2 ..."],
            "ingredients": ["2 cups flour", "3 eggs"],
            "servings": 2,
            "calories": "around 450 kcal per serving",
            "time": "35 minutes",
            "tags": ["comfort food", "weeknight"]
        }
    ]
}
Use only food-safe, edible ingredients. Quantities must be realistic.`

const marketSystemPrompt = `You are a professional chef helping a user shop. Respond only with JSON of the form:
{
    "recipes": [
        {
            "name": "Recipe name",
            "description": "One-sentence description",
            "steps": ["Step 1 ...", "Step 2 ..."],
            "have_ingredients": ["ingredients the user already has, with quantities"],
            "buy_ingredients": ["ingredients the user must buy, with quantities"],
            "servings": 2,
            "time": "35 minutes"
        }
    ]
}
Every ingredient goes in exactly one of the two lists. Pantry staples the user declared always count as already owned.`

const singleRecipeSystemPrompt = `You are a professional chef. Respond only with JSON of the form:
{
    "recipe": {
        "name": "Recipe name",
        "description": "One-sentence description",
        "steps": ["Step 1 ...", "Step 2 ..."],
        "ingredients": ["2 cups flour", "3 eggs"],
        "servings": 2,
        "calories": "around 450 kcal per serving",
        "time": "35 minutes",
        "tags": ["comfort food"],
        "common_questions": [{"question": "...", "answer": "..."}],
        "glossary": [{"term": "...", "definition": "..."}]
    }
}`

const weeklyPlanSystemPrompt = `You are a meal-planning assistant. Respond only with JSON of the form:
{
    "shopping_list": ["consolidated ingredients for the whole week, with quantities"],
    "days": [
        {
            "day": "Monday",
            "meals": [
                {"meal_type": "lunch", "recipe": {"name": "...", "description": "...", "steps": ["..."], "ingredients": ["..."], "servings": 2, "time": "..."}}
            ]
        }
    ]
}
Produce exactly 7 days. Consolidate duplicate ingredients in the shopping list.`

const identifySystemPrompt = `You identify food ingredients in photos. Respond only with JSON of the form:
{"ingredients": ["ingredient name", "..."]}
List each distinct edible ingredient you can see, lowercase, without quantities. Ignore packaging, utensils and anything inedible.`

const classifySystemPrompt = `You classify food photos. Respond only with JSON of the form:
{"kind": "dish"}
where kind is "dish" if the photo shows a prepared meal, or "ingredients" if it shows raw ingredients or leftovers.`

const adjustSystemPrompt = `You rescale recipe quantities. Respond only with JSON of the form:
{"ingredients": ["rescaled ingredient with quantity", "..."]}
Return the same ingredients in the same order, only with quantities scaled to the requested serving count. Round to sensible kitchen measures.`

const flavorSystemPrompt = `You analyze recipes for taste traits. Respond only with JSON of the form:
{"keywords": ["smoky", "citrusy", "..."]}
Return 3 to 6 short lowercase keywords describing the dominant flavors and style of the recipe.`

const answerSystemPrompt = `You answer cooking questions about a specific recipe. Respond only with JSON of the form:
{"answer": "..."}
Be concise and practical. Only answer questions related to the recipe or its preparation.`

const techniqueSystemPrompt = `You explain cooking techniques to home cooks. Respond only with JSON of the form:
{"explanation": "..."}
Two or three sentences, plain language, no jargon.`

// RecipeService orchestrates every LLM-backed operation: it validates inputs,
// composes prompts, issues the chat call and normalizes the parsed result.
// Transport and parse failures soft-fail into empty results so callers render
// an empty state instead of an error, with two exceptions: AdjustServings
// propagates its errors, and a region-blocked provider always propagates.
type RecipeService struct {
	chat  *ChatClient
	cache suggestionCache
}

// NewRecipeService creates the orchestrator. redisClient may be nil in tests;
// caching is then disabled.
func NewRecipeService(chat *ChatClient, redisClient *redis.Client) *RecipeService {
	return &RecipeService{
		chat:  chat,
		cache: suggestionCache{redis: redisClient},
	}
}

// SuggestRecipes returns up to count recipes for the given ingredients. Initial
// requests are served from the suggestion cache when possible.
func (s *RecipeService) SuggestRecipes(ctx context.Context, settings *models.UserSettings, ingredients, mealTypes []string, count int) ([]types.Recipe, error) {
	cleaned, err := normalizeList(ingredients)
	if err != nil {
		return nil, err
	}
	if err := safety.CheckIngredients(cleaned); err != nil {
		return nil, err
	}

	key := s.cache.Key(settings, cleaned, mealTypes)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	content, err := s.chat.Complete(ctx, recipeListSystemPrompt, prompt.Suggestion(settings, cleaned, mealTypes, count))
	if err != nil {
		return s.softFailList("SuggestRecipes", err)
	}

	recipes, err := parseRecipeList(content)
	if err != nil {
		return s.softFailList("SuggestRecipes", err)
	}

	if err := s.cache.Set(ctx, key, recipes); err != nil {
		log.Printf("[RecipeService] failed to cache suggestions: %v", err)
	}
	return recipes, nil
}

// SuggestReplacement returns one more recipe for the same ingredients,
// excluding names already shown. Never cached.
func (s *RecipeService) SuggestReplacement(ctx context.Context, settings *models.UserSettings, ingredients, mealTypes, excludeNames []string) (*types.Recipe, error) {
	cleaned, err := normalizeList(ingredients)
	if err != nil {
		return nil, err
	}
	if err := safety.CheckIngredients(cleaned); err != nil {
		return nil, err
	}

	userPrompt := prompt.Suggestion(settings, cleaned, mealTypes, 1)
	if len(excludeNames) > 0 {
		userPrompt += " Do not suggest any of these recipes again: " + strings.Join(excludeNames, ", ") + "."
	}

	content, err := s.chat.Complete(ctx, recipeListSystemPrompt, userPrompt)
	if err != nil {
		return s.softFailOne("SuggestReplacement", err)
	}

	recipes, err := parseRecipeList(content)
	if err != nil {
		return s.softFailOne("SuggestReplacement", err)
	}
	if len(recipes) == 0 {
		return s.softFailOne("SuggestReplacement", errors.New("response has no recipes"))
	}
	return &recipes[0], nil
}

// SuggestMarketRecipes returns recipes whose ingredient lists are split into
// already-have and to-buy, honoring pantry staples.
func (s *RecipeService) SuggestMarketRecipes(ctx context.Context, settings *models.UserSettings, ingredients, mealTypes []string) ([]types.Recipe, error) {
	cleaned, err := normalizeList(ingredients)
	if err != nil {
		return nil, err
	}
	if err := safety.CheckIngredients(cleaned); err != nil {
		return nil, err
	}

	userPrompt := "The user owns these ingredients: " + strings.Join(cleaned, ", ") + ". " +
		"Suggest 3 recipes, splitting each ingredient list into what they have and what they must buy."
	for _, frag := range []string{prompt.MealTypes(mealTypes), prompt.PantryStaples(settings), prompt.Preferences(settings)} {
		if frag != "" {
			userPrompt += " " + frag
		}
	}

	content, err := s.chat.Complete(ctx, marketSystemPrompt, userPrompt)
	if err != nil {
		return s.softFailList("SuggestMarketRecipes", err)
	}

	recipes, err := parseRecipeList(content)
	if err != nil {
		return s.softFailList("SuggestMarketRecipes", err)
	}
	return recipes, nil
}

// IdentifyIngredients lists the edible ingredients visible in the photos. The
// result is run through the safety check so a photo of something inedible is
// rejected the same way typed input would be.
func (s *RecipeService) IdentifyIngredients(ctx context.Context, photos []string) ([]string, error) {
	if len(photos) == 0 {
		return nil, errors.New("at least one photo is required")
	}

	content, err := s.chat.CompleteWithPhotos(ctx, identifySystemPrompt, "List the food ingredients visible in these photos.", photos)
	if err != nil {
		return s.softFailNames("IdentifyIngredients", err)
	}

	var result struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return s.softFailNames("IdentifyIngredients", err)
	}

	if err := safety.CheckIngredients(result.Ingredients); err != nil {
		return nil, err
	}
	return result.Ingredients, nil
}

// ClassifyPhoto reports whether a photo shows a prepared dish or raw
// ingredients. Returns "" on soft failure.
func (s *RecipeService) ClassifyPhoto(ctx context.Context, photo string) (string, error) {
	content, err := s.chat.CompleteWithPhotos(ctx, classifySystemPrompt, "Classify this photo.", []string{photo})
	if err != nil {
		return s.softFailText("ClassifyPhoto", err)
	}

	var result struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return s.softFailText("ClassifyPhoto", err)
	}

	switch result.Kind {
	case "dish", "ingredients":
		return result.Kind, nil
	default:
		return "", nil
	}
}

// RecipeFromPhoto reconstructs one full recipe from a dish photo.
func (s *RecipeService) RecipeFromPhoto(ctx context.Context, settings *models.UserSettings, photo string) (*types.Recipe, error) {
	userPrompt := "Identify the dish in this photo and write a complete recipe to reproduce it, including common questions and a technique glossary."
	if frag := prompt.Preferences(settings); frag != "" {
		userPrompt += " " + frag
	}

	content, err := s.chat.CompleteWithPhotos(ctx, singleRecipeSystemPrompt, userPrompt, []string{photo})
	if err != nil {
		return s.softFailOne("RecipeFromPhoto", err)
	}

	recipe, err := parseSingleRecipe(content)
	if err != nil {
		return s.softFailOne("RecipeFromPhoto", err)
	}
	return recipe, nil
}

// GenerateWeeklyPlan builds 7 daily entries plus one consolidated shopping
// list from the user's settings alone.
func (s *RecipeService) GenerateWeeklyPlan(ctx context.Context, settings *models.UserSettings, mealTypes []string) (*types.WeeklyPlan, error) {
	userPrompt := "Plan one week of meals for this user."
	for _, frag := range []string{prompt.MealTypes(mealTypes), prompt.PantryStaples(settings), prompt.Preferences(settings)} {
		if frag != "" {
			userPrompt += " " + frag
		}
	}

	content, err := s.chat.Complete(ctx, weeklyPlanSystemPrompt, userPrompt)
	if err != nil {
		return s.softFailPlan("GenerateWeeklyPlan", err)
	}

	var plan types.WeeklyPlan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return s.softFailPlan("GenerateWeeklyPlan", err)
	}
	if len(plan.Days) == 0 {
		return s.softFailPlan("GenerateWeeklyPlan", errors.New("plan has no days"))
	}

	for di := range plan.Days {
		for mi := range plan.Days[di].Meals {
			if plan.Days[di].Meals[mi].Recipe.ID == uuid.Nil {
				plan.Days[di].Meals[mi].Recipe.ID = uuid.New()
			}
		}
	}
	return &plan, nil
}

// AdjustServings rescales a recipe's ingredient quantities. Unlike the other
// operations this one propagates failures so the UI can show a blocking alert.
func (s *RecipeService) AdjustServings(ctx context.Context, recipe *types.Recipe, currentServings, targetServings int) ([]string, error) {
	if targetServings <= 0 {
		return nil, errors.New("target servings must be positive")
	}
	if len(recipe.Ingredients) == 0 {
		return nil, errors.New("recipe has no ingredient list")
	}

	userPrompt := fmt.Sprintf(
		"This recipe serves %d:\n%s\nRescale the ingredient quantities for %d servings.",
		currentServings, strings.Join(recipe.Ingredients, "\n"), targetServings,
	)

	content, err := s.chat.Complete(ctx, adjustSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust servings: %w", err)
	}

	var result struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse adjusted ingredients: %w", err)
	}
	if len(result.Ingredients) == 0 {
		return nil, errors.New("empty adjusted ingredient list")
	}
	return result.Ingredients, nil
}

// AnalyzeRecipeFlavor extracts flavor keywords from a recipe the user saved,
// feeding the implicit preference learning.
func (s *RecipeService) AnalyzeRecipeFlavor(ctx context.Context, recipe *types.Recipe) ([]string, error) {
	userPrompt := fmt.Sprintf("Recipe: %s. %s Ingredients: %s.",
		recipe.Name, recipe.Description, strings.Join(recipe.Ingredients, ", "))

	content, err := s.chat.Complete(ctx, flavorSystemPrompt, userPrompt)
	if err != nil {
		return s.softFailNames("AnalyzeRecipeFlavor", err)
	}

	var result struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return s.softFailNames("AnalyzeRecipeFlavor", err)
	}
	return result.Keywords, nil
}

// AnswerRecipeQuestion answers a free-text question about a recipe.
func (s *RecipeService) AnswerRecipeQuestion(ctx context.Context, recipe *types.Recipe, question string) (string, error) {
	userPrompt := fmt.Sprintf("Recipe: %s.\nIngredients: %s\nSteps: %s\n\nQuestion: %s",
		recipe.Name, strings.Join(recipe.Ingredients, ", "), strings.Join(recipe.Steps, " "), question)

	content, err := s.chat.Complete(ctx, answerSystemPrompt, userPrompt)
	if err != nil {
		return s.softFailText("AnswerRecipeQuestion", err)
	}

	var result struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return s.softFailText("AnswerRecipeQuestion", err)
	}
	return result.Answer, nil
}

// ExplainTechnique returns a short explanation of a cooking technique.
func (s *RecipeService) ExplainTechnique(ctx context.Context, term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", errors.New("term is required")
	}

	content, err := s.chat.Complete(ctx, techniqueSystemPrompt, "Explain the technique: "+term)
	if err != nil {
		return s.softFailText("ExplainTechnique", err)
	}

	var result struct {
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return s.softFailText("ExplainTechnique", err)
	}
	return result.Explanation, nil
}

func parseRecipeList(content string) ([]types.Recipe, error) {
	var wrapper struct {
		Recipes []types.Recipe `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse recipes: %w", err)
	}
	for i := range wrapper.Recipes {
		if wrapper.Recipes[i].ID == uuid.Nil {
			wrapper.Recipes[i].ID = uuid.New()
		}
	}
	return wrapper.Recipes, nil
}

func parseSingleRecipe(content string) (*types.Recipe, error) {
	var wrapper struct {
		Recipe *types.Recipe `json:"recipe"`
	}
	if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if wrapper.Recipe == nil {
		return nil, errors.New("response has no recipe")
	}
	if wrapper.Recipe.ID == uuid.Nil {
		wrapper.Recipe.ID = uuid.New()
	}
	return wrapper.Recipe, nil
}

// Soft-failure helpers. Region-blocked always propagates; everything else is
// logged and collapsed into the operation's empty result.

func (s *RecipeService) softFailList(op string, err error) ([]types.Recipe, error) {
	if errors.Is(err, ErrRegionBlocked) {
		return nil, err
	}
	log.Printf("[RecipeService] %s: %v", op, err)
	return []types.Recipe{}, nil
}

func (s *RecipeService) softFailOne(op string, err error) (*types.Recipe, error) {
	if errors.Is(err, ErrRegionBlocked) {
		return nil, err
	}
	log.Printf("[RecipeService] %s: %v", op, err)
	return nil, nil
}

func (s *RecipeService) softFailNames(op string, err error) ([]string, error) {
	if errors.Is(err, ErrRegionBlocked) {
		return nil, err
	}
	log.Printf("[RecipeService] %s: %v", op, err)
	return []string{}, nil
}

func (s *RecipeService) softFailText(op string, err error) (string, error) {
	if errors.Is(err, ErrRegionBlocked) {
		return "", err
	}
	log.Printf("[RecipeService] %s: %v", op, err)
	return "", nil
}

func (s *RecipeService) softFailPlan(op string, err error) (*types.WeeklyPlan, error) {
	if errors.Is(err, ErrRegionBlocked) {
		return nil, err
	}
	log.Printf("[RecipeService] %s: %v", op, err)
	return nil, nil
}
