package repository

import (
	"errors"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BoundaryRepository maintains the single sync-boundary row. The boundary is
// advanced by the downlink job when a downlink sync completes and read as an
// explicit parameter by the conflict resolver.
type BoundaryRepository interface {
	// Get returns the boundary, or nil before the first-ever downlink sync
	Get() (*syncdomain.SyncBoundary, error)
	Advance(lastSyncUpdate time.Time, runID string) error
}

// boundaryRepository implements BoundaryRepository interface
type boundaryRepository struct {
	db *gorm.DB
}

// NewBoundaryRepository creates a new instance of boundaryRepository
func NewBoundaryRepository(db *gorm.DB) BoundaryRepository {
	return &boundaryRepository{db: db}
}

func (r *boundaryRepository) Get() (*syncdomain.SyncBoundary, error) {
	var boundary syncdomain.SyncBoundary
	err := r.db.Where("id = ?", syncdomain.BoundaryRowID).First(&boundary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &boundary, nil
}

func (r *boundaryRepository) Advance(lastSyncUpdate time.Time, runID string) error {
	boundary := syncdomain.SyncBoundary{
		ID:             syncdomain.BoundaryRowID,
		LastSyncUpdate: lastSyncUpdate,
		CompletedRunID: runID,
		UpdatedAt:      time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_sync_update", "completed_run_id", "updated_at"}),
	}).Create(&boundary).Error
}
