package models

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// SavedRecipe is a recipe the user explicitly kept. Suggested recipes live only
// in the session until saved.
type SavedRecipe struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string           `gorm:"size:255;not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Steps       JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"steps"`
	Ingredients JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Servings    int              `json:"servings"`
	Calories    string           `gorm:"size:50" json:"calories"`
	Time        string           `gorm:"size:50" json:"time"`
	Tags        JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	Embedding   pgvector.Vector  `gorm:"type:vector(3)" json:"-"`
}

func (SavedRecipe) TableName() string {
	return "saved_recipes"
}
