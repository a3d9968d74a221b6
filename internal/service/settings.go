package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kiloapp/kilo-v2/backend/internal/models"
	"github.com/kiloapp/kilo-v2/backend/internal/safety"
	"github.com/kiloapp/kilo-v2/backend/internal/types"
)

// SettingsService owns the user settings record: created on first read,
// overwritten wholesale on save, appended to by the implicit flavor learning.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Get returns the user's settings, creating the default record on first read.
// Nil JSON columns from older rows are merged against the defaults.
func (s *SettingsService) Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fresh := models.DefaultSettings(userID)
		if err := s.db.WithContext(ctx).Create(fresh).Error; err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if err != nil {
		return nil, err
	}

	mergeDefaults(&settings)
	return &settings, nil
}

// Update overwrites the preference fields wholesale. Equipment entries go
// through the safety check before anything is persisted; the plan tier and
// the usage counter are never touched here.
func (s *SettingsService) Update(ctx context.Context, userID uuid.UUID, req *types.UpdateSettingsRequest) (*models.UserSettings, error) {
	if err := safety.CheckEquipment(req.Equipment); err != nil {
		return nil, err
	}

	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings.Vegetarian = req.Vegetarian
	settings.Vegan = req.Vegan
	settings.GlutenFree = req.GlutenFree
	settings.LactoseFree = req.LactoseFree
	settings.LowCarb = req.LowCarb
	settings.Allergies = req.Allergies
	settings.EffortFilters = req.EffortFilters
	settings.PreferredCuisines = req.PreferredCuisines
	settings.Equipment = req.Equipment
	settings.PantryStaples = req.PantryStaples
	if req.SpiceLevel != "" {
		settings.SpiceLevel = req.SpiceLevel
	}
	mergeDefaults(settings)

	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// AppendFlavorKeywords adds newly learned flavor keywords, skipping ones
// already present.
func (s *SettingsService) AppendFlavorKeywords(ctx context.Context, userID uuid.UUID, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}

	settings, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(settings.FlavorKeywords))
	for _, k := range settings.FlavorKeywords {
		known[k] = true
	}
	for _, k := range keywords {
		if k != "" && !known[k] {
			settings.FlavorKeywords = append(settings.FlavorKeywords, k)
			known[k] = true
		}
	}

	return s.db.WithContext(ctx).Model(settings).
		Update("flavor_keywords", settings.FlavorKeywords).Error
}

// SetPlanTier switches the account between free and pro.
func (s *SettingsService) SetPlanTier(ctx context.Context, userID uuid.UUID, tier string) error {
	if tier != models.PlanFree && tier != models.PlanPro {
		return errors.New("unknown plan tier")
	}

	settings, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(settings).Update("plan_tier", tier).Error
}

// mergeDefaults backfills fields that rows written by older schema versions
// may be missing.
func mergeDefaults(settings *models.UserSettings) {
	if settings.EffortFilters == nil {
		settings.EffortFilters = models.JSONBStringArray{}
	}
	if settings.PreferredCuisines == nil {
		settings.PreferredCuisines = models.JSONBStringArray{}
	}
	if settings.Equipment == nil {
		settings.Equipment = models.JSONBStringArray{}
	}
	if settings.PantryStaples == nil {
		settings.PantryStaples = models.JSONBStringArray{}
	}
	if settings.FlavorKeywords == nil {
		settings.FlavorKeywords = models.JSONBStringArray{}
	}
	if settings.SpiceLevel == "" {
		settings.SpiceLevel = "medium"
	}
	if settings.PlanTier == "" {
		settings.PlanTier = models.PlanFree
	}
}
