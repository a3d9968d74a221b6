package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kiloapp/kilo-v2/backend/internal/models"
	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

// SavedRecipeService persists the recipes a user explicitly keeps. Saving a
// recipe also feeds the implicit flavor learning.
type SavedRecipeService struct {
	db       *gorm.DB
	recipes  *RecipeService
	settings *SettingsService
}

func NewSavedRecipeService(db *gorm.DB, recipes *RecipeService, settings *SettingsService) *SavedRecipeService {
	return &SavedRecipeService{db: db, recipes: recipes, settings: settings}
}

// Save persists the recipe and runs the flavor analysis. Analysis failures
// never block the save.
func (s *SavedRecipeService) Save(ctx context.Context, userID uuid.UUID, recipe *types.Recipe) (*models.SavedRecipe, error) {
	ingredients := recipe.Ingredients
	if len(ingredients) == 0 {
		// Market-mode recipes keep their combined list.
		ingredients = append(append([]string{}, recipe.HaveIngredients...), recipe.BuyIngredients...)
	}

	saved := &models.SavedRecipe{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        recipe.Name,
		Description: recipe.Description,
		Steps:       models.JSONBStringArray(recipe.Steps),
		Ingredients: models.JSONBStringArray(ingredients),
		Servings:    recipe.Servings,
		Calories:    recipe.Calories,
		Time:        recipe.Time,
		Tags:        models.JSONBStringArray(recipe.Tags),
		Embedding:   GenerateEmbedding(recipe.Name + " " + recipe.Description),
	}

	if err := s.db.WithContext(ctx).Create(saved).Error; err != nil {
		return nil, err
	}

	keywords, err := s.recipes.AnalyzeRecipeFlavor(ctx, recipe)
	if err != nil {
		log.Printf("[SavedRecipeService] flavor analysis failed: %v", err)
		return saved, nil
	}
	if err := s.settings.AppendFlavorKeywords(ctx, userID, keywords); err != nil {
		log.Printf("[SavedRecipeService] failed to store flavor keywords: %v", err)
	}

	return saved, nil
}

// List returns the user's saved recipes, newest first.
func (s *SavedRecipeService) List(ctx context.Context, userID uuid.UUID) ([]models.SavedRecipe, error) {
	var recipes []models.SavedRecipe
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recipes).Error
	return recipes, err
}

// Search finds saved recipes by free text. On postgres results are ordered by
// embedding distance; elsewhere a LIKE match is used.
func (s *SavedRecipeService) Search(ctx context.Context, userID uuid.UUID, query string) ([]models.SavedRecipe, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if query != "" {
		if s.db.Dialector.Name() == "postgres" {
			vec := GenerateEmbedding(query)
			q = q.Clauses(clause.OrderBy{
				Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
			})
		} else {
			like := "%" + strings.ToLower(query) + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
		}
	}

	var recipes []models.SavedRecipe
	err := q.Find(&recipes).Error
	return recipes, err
}

// Delete removes one saved recipe belonging to the user.
func (s *SavedRecipeService) Delete(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", recipeID, userID).
		Delete(&models.SavedRecipe{}).Error
}
