package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kiloapp/kilo-v2/backend/internal/service"
	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

// PhotoHandler exposes the photo-based generation operations. Photo archival
// to S3 is best effort and never blocks the user-facing response.
type PhotoHandler struct {
	recipes  *service.RecipeService
	settings *service.SettingsService
	photos   *service.PhotoService
}

func NewPhotoHandler(recipes *service.RecipeService, settings *service.SettingsService, photos *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{recipes: recipes, settings: settings, photos: photos}
}

// Identify extracts ingredient names from up to three fridge or pantry photos.
// This is a quota-gated primary generation action.
func (h *PhotoHandler) Identify(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req types.IdentifyPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Photos) == 0 || len(req.Photos) > 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "between 1 and 3 photos are required"})
		return
	}

	ingredients, err := h.recipes.IdentifyIngredients(c.Request.Context(), req.Photos)
	if handleGenerationError(c, err) {
		return
	}

	h.archive(c, userID, req.Photos)

	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

// Classify decides whether a photo shows a finished dish or raw ingredients.
// Not quota-gated; the follow-up generation action is.
func (h *PhotoHandler) Classify(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req types.ClassifyPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, err := h.recipes.ClassifyPhoto(c.Request.Context(), req.Photo)
	if handleGenerationError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"kind": kind})
}

// RecipeFromPhoto reconstructs a full recipe from a dish photo. This is a
// quota-gated primary generation action.
func (h *PhotoHandler) RecipeFromPhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req types.RecipeFromPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	recipe, err := h.recipes.RecipeFromPhoto(c.Request.Context(), settings, req.Photo)
	if handleGenerationError(c, err) {
		return
	}

	h.archive(c, userID, []string{req.Photo})

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// ArchiveURL returns a short-lived presigned URL for an archived photo. Keys
// are scoped to the caller; requesting another user's photo is a 404.
func (h *PhotoHandler) ArchiveURL(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if h.photos == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo archive is not configured"})
		return
	}

	key := c.Query("key")
	if key == "" || !strings.HasPrefix(key, "uploads/"+userID.String()+"/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return
	}

	url, err := h.photos.URL(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign photo url"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *PhotoHandler) archive(c *gin.Context, userID uuid.UUID, photos []string) {
	if h.photos == nil {
		return
	}
	for _, photo := range photos {
		if _, err := h.photos.Archive(c.Request.Context(), userID, photo); err != nil {
			log.Printf("[PhotoHandler] failed to archive photo for user %s: %v", userID, err)
		}
	}
}
