package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kiloapp/kilo-v2/backend/internal/service"
	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

// RecipeHandler exposes the recipe generation operations.
type RecipeHandler struct {
	recipes  *service.RecipeService
	settings *service.SettingsService
}

func NewRecipeHandler(recipes *service.RecipeService, settings *service.SettingsService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, settings: settings}
}

// SuggestRecipes handles manual ingredient submission, one of the three
// quota-gated primary generation actions.
func (h *RecipeHandler) SuggestRecipes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req types.SuggestRecipesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	recipes, err := h.recipes.SuggestRecipes(c.Request.Context(), settings, req.Ingredients, req.MealTypes, req.Count)
	if handleGenerationError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// SuggestReplacement returns one more recipe, excluding names already shown.
// Not quota-gated: it belongs to a generation the user already paid for.
func (h *RecipeHandler) SuggestReplacement(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req types.ReplacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	recipe, err := h.recipes.SuggestReplacement(c.Request.Context(), settings, req.Ingredients, req.MealTypes, req.ExcludeNames)
	if handleGenerationError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// SuggestMarket returns recipes with have / to-buy ingredient splits.
func (h *RecipeHandler) SuggestMarket(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req types.MarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	recipes, err := h.recipes.SuggestMarketRecipes(c.Request.Context(), settings, req.Ingredients, req.MealTypes)
	if handleGenerationError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// AdjustServings rescales ingredient quantities. Failures here are surfaced to
// the caller instead of soft-failing.
func (h *RecipeHandler) AdjustServings(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req types.AdjustServingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ingredients, err := h.recipes.AdjustServings(c.Request.Context(), &req.Recipe, req.CurrentServings, req.TargetServings)
	if handleGenerationError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

// AnswerQuestion answers a free-text question about a recipe.
func (h *RecipeHandler) AnswerQuestion(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req types.RecipeQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.recipes.AnswerRecipeQuestion(c.Request.Context(), &req.Recipe, req.Question)
	if handleGenerationError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// ExplainTechnique explains one cooking technique term.
func (h *RecipeHandler) ExplainTechnique(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req types.TechniqueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	explanation, err := h.recipes.ExplainTechnique(c.Request.Context(), req.Term)
	if handleGenerationError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"explanation": explanation})
}
