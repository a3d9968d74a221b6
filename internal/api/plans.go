package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kiloapp/kilo-v2/backend/internal/service"
	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

// PlanHandler exposes weekly meal plan generation and storage.
type PlanHandler struct {
	recipes  *service.RecipeService
	settings *service.SettingsService
	plans    *service.PlanStore
}

func NewPlanHandler(recipes *service.RecipeService, settings *service.SettingsService, plans *service.PlanStore) *PlanHandler {
	return &PlanHandler{recipes: recipes, settings: settings, plans: plans}
}

// Generate builds a seven-day plan from the user's pantry staples and
// preferences.
func (h *PlanHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		MealTypes []string `json:"meal_types"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	plan, err := h.recipes.GenerateWeeklyPlan(c.Request.Context(), settings, req.MealTypes)
	if handleGenerationError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// Save keeps a generated plan for later retrieval.
func (h *PlanHandler) Save(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var plan types.WeeklyPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.plans.Save(c.Request.Context(), userID, &plan); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save plan"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": plan.ID})
}

func (h *PlanHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	plan, err := h.plans.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

func (h *PlanHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.plans.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
