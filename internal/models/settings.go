package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan tiers. Free accounts carry the daily generation quota; pro accounts are
// exempt.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// JSONBStringArray stores a string array as JSONB (TEXT on sqlite).
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// UserSettings is the per-user preference record. It is the single source of
// truth for prompt composition and for the daily generation counter; settings
// updates overwrite it wholesale.
type UserSettings struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Vegetarian  bool `gorm:"not null;default:false" json:"vegetarian"`
	Vegan       bool `gorm:"not null;default:false" json:"vegan"`
	GlutenFree  bool `gorm:"not null;default:false" json:"gluten_free"`
	LactoseFree bool `gorm:"not null;default:false" json:"lactose_free"`
	LowCarb     bool `gorm:"not null;default:false" json:"low_carb"`

	Allergies         string           `gorm:"type:text" json:"allergies"`
	EffortFilters     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"effort_filters"`
	PreferredCuisines JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"preferred_cuisines"`
	SpiceLevel        string           `gorm:"size:20;not null;default:'medium'" json:"spice_level"`
	Equipment         JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"equipment"`
	PantryStaples     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"pantry_staples"`
	FlavorKeywords    JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"flavor_keywords"`

	PlanTier string `gorm:"size:10;not null;default:'free'" json:"plan_tier"`

	GenerationCount     int       `gorm:"not null;default:0" json:"generation_count"`
	LastGenerationReset time.Time `json:"last_generation_reset"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}

// IsPro reports whether the account is exempt from the daily quota.
func (s *UserSettings) IsPro() bool {
	return s.PlanTier == PlanPro
}

// DefaultSettings returns the zero-state settings for a new user. Loaded
// records are merged against these defaults so older rows tolerate schema
// drift.
func DefaultSettings(userID uuid.UUID) *UserSettings {
	return &UserSettings{
		ID:                  uuid.New(),
		UserID:              userID,
		EffortFilters:       JSONBStringArray{},
		PreferredCuisines:   JSONBStringArray{},
		SpiceLevel:          "medium",
		Equipment:           JSONBStringArray{},
		PantryStaples:       JSONBStringArray{},
		FlavorKeywords:      JSONBStringArray{},
		PlanTier:            PlanFree,
		LastGenerationReset: time.Now(),
	}
}
