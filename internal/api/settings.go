package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kiloapp/kilo-v2/backend/internal/quota"
	"github.com/kiloapp/kilo-v2/backend/internal/safety"
	"github.com/kiloapp/kilo-v2/backend/internal/service"
	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

// SettingsHandler exposes user preferences, the plan tier, and the daily usage
// view.
type SettingsHandler struct {
	settings *service.SettingsService
	tracker  *quota.Tracker
}

func NewSettingsHandler(settings *service.SettingsService, tracker *quota.Tracker) *SettingsHandler {
	return &SettingsHandler{settings: settings, tracker: tracker}
}

func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings", h.Get)
	rg.PUT("/settings", h.Update)
	rg.PUT("/settings/plan", h.SetPlan)
	rg.GET("/usage", h.Usage)
}

func (h *SettingsHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// Update replaces the preference fields wholesale with the submitted values.
func (h *SettingsHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req types.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), userID, &req)
	if err != nil {
		var blocked *safety.BlockedTermError
		if errors.As(err, &blocked) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_equipment", "term": blocked.Term})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// SetPlan switches the account between the free and pro tiers.
func (h *SettingsHandler) SetPlan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settings.SetPlanTier(c.Request.Context(), userID, req.Plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": req.Plan})
}

// Usage reports today's generation count and what is left. Pro accounts read
// "unlimited" instead of a number.
func (h *SettingsHandler) Usage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.tracker.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
		return
	}

	remaining, err := h.tracker.Remaining(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
		return
	}

	resp := gin.H{
		"count":      stats.Count,
		"last_reset": stats.LastReset,
		"plan":       stats.Plan,
		"limit":      quota.FreeDailyLimit,
	}
	if remaining == quota.Unlimited {
		resp["remaining"] = "unlimited"
	} else {
		resp["remaining"] = remaining
	}

	c.JSON(http.StatusOK, resp)
}
