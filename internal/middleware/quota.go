package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kiloapp/kilo-v2/backend/internal/quota"
)

// QuotaGate consumes one daily generation before the handler runs. It is
// applied to the three primary generation endpoints only; nested operations
// behind them never count twice. The blocked request fails here, before any
// LLM call is made.
func QuotaGate(tracker *quota.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		userID, ok := userIDVal.(uuid.UUID)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		err := tracker.CheckAndIncrement(c.Request.Context(), userID)
		if errors.Is(err, quota.ErrLimitReached) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "limit_reached",
				"message": "Daily free-plan generation limit reached. Upgrade to pro for unlimited generations.",
			})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check usage"})
			c.Abort()
			return
		}

		c.Next()
	}
}
