// Package quota enforces the free-plan daily generation limit. The counter
// lives on the user settings record; it resets on calendar-day rollover and is
// bounded by FreeDailyLimit for free accounts. Pro accounts are exempt.
package quota

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kiloapp/kilo-v2/backend/internal/models"
)

// FreeDailyLimit is the number of primary generation actions allowed per
// calendar day on the free plan.
const FreeDailyLimit = 5

// Unlimited is the remaining-count sentinel for pro accounts.
const Unlimited = math.MaxInt32

// ErrLimitReached signals that the free-plan daily limit is exhausted. The
// stored count is left unchanged.
var ErrLimitReached = errors.New("daily generation limit reached")

// Stats is a point-in-time view of a user's usage.
type Stats struct {
	Count     int       `json:"count"`
	LastReset time.Time `json:"last_reset"`
	Plan      string    `json:"plan"`
}

// Tracker reads and mutates the per-user daily counter.
type Tracker struct {
	db    *gorm.DB
	limit int
	now   func() time.Time
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db, limit: FreeDailyLimit, now: time.Now}
}

// Stats returns the user's current usage. A counter whose last reset falls on
// a prior calendar day reads as zero; the reset is logical and nothing is
// written back until the next increment.
func (t *Tracker) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	settings, err := t.load(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	count, lastReset := t.effective(settings)
	return Stats{Count: count, LastReset: lastReset, Plan: settings.PlanTier}, nil
}

// CheckAndIncrement consumes one generation. Pro accounts always pass without
// touching the counter. Free accounts fail with ErrLimitReached at the limit;
// otherwise the incremented count is persisted.
func (t *Tracker) CheckAndIncrement(ctx context.Context, userID uuid.UUID) error {
	settings, err := t.load(ctx, userID)
	if err != nil {
		return err
	}

	if settings.IsPro() {
		return nil
	}

	count, lastReset := t.effective(settings)
	if count >= t.limit {
		return ErrLimitReached
	}

	return t.db.WithContext(ctx).Model(settings).Updates(map[string]interface{}{
		"generation_count":      count + 1,
		"last_generation_reset": lastReset,
	}).Error
}

// Remaining returns how many generations are left today, or Unlimited for pro
// accounts.
func (t *Tracker) Remaining(ctx context.Context, userID uuid.UUID) (int, error) {
	settings, err := t.load(ctx, userID)
	if err != nil {
		return 0, err
	}

	if settings.IsPro() {
		return Unlimited, nil
	}

	count, _ := t.effective(settings)
	remaining := t.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// load fetches the settings record, creating the zero state on first use.
func (t *Tracker) load(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := t.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fresh := models.DefaultSettings(userID)
		fresh.LastGenerationReset = t.now()
		if err := t.db.WithContext(ctx).Create(fresh).Error; err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// effective applies the calendar-day rollover without writing it back.
func (t *Tracker) effective(settings *models.UserSettings) (int, time.Time) {
	now := t.now()
	if sameDay(settings.LastGenerationReset, now) {
		return settings.GenerationCount, settings.LastGenerationReset
	}
	return 0, now
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
