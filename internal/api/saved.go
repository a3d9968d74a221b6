package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kiloapp/kilo-v2/backend/internal/service"
	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

// SavedRecipeHandler exposes the user's saved recipe collection.
type SavedRecipeHandler struct {
	saved *service.SavedRecipeService
}

func NewSavedRecipeHandler(saved *service.SavedRecipeService) *SavedRecipeHandler {
	return &SavedRecipeHandler{saved: saved}
}

func (h *SavedRecipeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	saved := rg.Group("/saved-recipes")
	{
		saved.POST("", h.Save)
		saved.GET("", h.List)
		saved.DELETE("/:id", h.Delete)
	}
}

func (h *SavedRecipeHandler) Save(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var recipe types.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if recipe.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipe name is required"})
		return
	}

	saved, err := h.saved.Save(c.Request.Context(), userID, &recipe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save recipe"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recipe": saved})
}

// List returns saved recipes, optionally filtered by a free-text query.
func (h *SavedRecipeHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := c.Query("q")
	var (
		recipes interface{}
		err     error
	)
	if query != "" {
		recipes, err = h.saved.Search(c.Request.Context(), userID, query)
	} else {
		recipes, err = h.saved.List(c.Request.Context(), userID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *SavedRecipeHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	if err := h.saved.Delete(c.Request.Context(), userID, recipeID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
