package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kiloapp/kilo-v2/backend/internal/safety"
	"github.com/kiloapp/kilo-v2/backend/internal/service"
)

// currentUserID pulls the authenticated user out of the gin context, replying
// 401 when it is missing.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}

	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

// handleGenerationError maps orchestrator errors onto HTTP responses: blocked
// terms become 400 with the offending term, empty input lists become 400, a
// region-locked provider becomes 451, anything else is a 500. Returns false
// when no error was written.
func handleGenerationError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var blocked *safety.BlockedTermError
	if errors.As(err, &blocked) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_ingredient",
			"term":  blocked.Term,
		})
		return true
	}

	if errors.Is(err, service.ErrEmptyInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return true
	}

	if errors.Is(err, service.ErrRegionBlocked) {
		c.JSON(http.StatusUnavailableForLegalReasons, gin.H{"error": "region_blocked"})
		return true
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	return true
}
