package repository

import (
	"errors"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageCounterRepository persists remote API call usage per quota window
type UsageCounterRepository interface {
	// FindOrCreate returns the counter for the given window, creating it
	// with the configured limit when the window is new. Superseded windows
	// are kept for accounting, not deleted.
	FindOrCreate(windowID string, callsLimit int, resetsAt time.Time) (*syncdomain.UsageCounter, error)
	// AddCalls increments calls_used for the window
	AddCalls(windowID string, n int) error
}

// usageCounterRepository implements UsageCounterRepository interface
type usageCounterRepository struct {
	db *gorm.DB
}

// NewUsageCounterRepository creates a new instance of usageCounterRepository
func NewUsageCounterRepository(db *gorm.DB) UsageCounterRepository {
	return &usageCounterRepository{db: db}
}

func (r *usageCounterRepository) FindOrCreate(windowID string, callsLimit int, resetsAt time.Time) (*syncdomain.UsageCounter, error) {
	now := time.Now()
	counter := syncdomain.UsageCounter{
		ID:         uuid.New().String(),
		WindowID:   windowID,
		CallsLimit: callsLimit,
		ResetsAt:   resetsAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// INSERT ... ON CONFLICT DO NOTHING, then read back whichever row won
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "window_id"}},
		DoNothing: true,
	}).Create(&counter).Error
	if err != nil {
		return nil, err
	}

	var current syncdomain.UsageCounter
	err = r.db.Where("window_id = ?", windowID).First(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &counter, nil
		}
		return nil, err
	}
	return &current, nil
}

func (r *usageCounterRepository) AddCalls(windowID string, n int) error {
	return r.db.Model(&syncdomain.UsageCounter{}).
		Where("window_id = ?", windowID).
		UpdateColumns(map[string]interface{}{
			"calls_used": gorm.Expr("calls_used + ?", n),
			"updated_at": time.Now(),
		}).Error
}
