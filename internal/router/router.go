package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kiloapp/kilo-v2/backend/internal/api"
	"github.com/kiloapp/kilo-v2/backend/internal/database"
	"github.com/kiloapp/kilo-v2/backend/internal/middleware"
	"github.com/kiloapp/kilo-v2/backend/internal/quota"
)

// Deps collects everything the router wires together.
type Deps struct {
	Auth     *api.AuthHandler
	Recipes  *api.RecipeHandler
	Photos   *api.PhotoHandler
	Plans    *api.PlanHandler
	Settings *api.SettingsHandler
	Saved    *api.SavedRecipeHandler

	Validator   middleware.TokenValidator
	Tracker     *quota.Tracker
	RateLimiter *middleware.RateLimiter
	HealthDB    *database.DB
}

// SetupRouter configures the application routes. The daily quota gate sits on
// the three primary generation endpoints only: manual ingredient suggestions,
// photo ingredient identification, and recipe-from-photo. Everything else
// LLM-backed rides on a generation the user already consumed.
func SetupRouter(deps Deps) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "time": time.Now().UTC()}
		if deps.HealthDB != nil {
			if err := deps.HealthDB.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
			status["database"] = "ok"
		}
		c.JSON(http.StatusOK, status)
	})

	v1 := router.Group("/api/v1")

	deps.Auth.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Validator))

	gate := middleware.QuotaGate(deps.Tracker)

	// LLM-backed routes sit behind the hourly burst limiter.
	llm := protected.Group("")
	if deps.RateLimiter != nil {
		llm.Use(deps.RateLimiter.Middleware())
	}
	{
		recipes := llm.Group("/recipes")
		{
			recipes.POST("/suggestions", gate, deps.Recipes.SuggestRecipes)
			recipes.POST("/replacement", deps.Recipes.SuggestReplacement)
			recipes.POST("/market", deps.Recipes.SuggestMarket)
			recipes.POST("/from-photo", gate, deps.Photos.RecipeFromPhoto)
			recipes.POST("/adjust-servings", deps.Recipes.AdjustServings)
			recipes.POST("/question", deps.Recipes.AnswerQuestion)
			recipes.POST("/technique", deps.Recipes.ExplainTechnique)
		}

		photos := llm.Group("/photos")
		{
			photos.POST("/identify", gate, deps.Photos.Identify)
			photos.POST("/classify", deps.Photos.Classify)
		}

		llm.POST("/plans/weekly", deps.Plans.Generate)
	}

	protected.GET("/photos/url", deps.Photos.ArchiveURL)

	plans := protected.Group("/plans")
	{
		plans.POST("", deps.Plans.Save)
		plans.GET("/:id", deps.Plans.Get)
		plans.DELETE("/:id", deps.Plans.Delete)
	}

	deps.Settings.RegisterRoutes(protected)
	deps.Saved.RegisterRoutes(protected)

	return router
}
