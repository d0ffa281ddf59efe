package repository

import (
	"errors"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncRunRepository is the durable half of the progress tracker. Rows are
// kept for a retention window after reaching a terminal state so that a
// status query arriving after a process restart can still be answered.
type SyncRunRepository interface {
	Save(run *syncdomain.SyncRun) error
	FindByRunID(runID string) (*syncdomain.SyncRun, error)
	// PurgeOlderThan deletes terminal runs whose last update is before the cutoff
	PurgeOlderThan(cutoff time.Time) (int64, error)
}

// syncRunRepository implements SyncRunRepository interface
type syncRunRepository struct {
	db *gorm.DB
}

// NewSyncRunRepository creates a new instance of syncRunRepository
func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

// Save upserts the run record (atomic upsert keyed by run_id)
func (r *syncRunRepository) Save(run *syncdomain.SyncRun) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "progress_percent", "stage_label",
			"items_processed", "items_total", "updated_at",
		}),
	}).Create(run).Error
}

func (r *syncRunRepository) FindByRunID(runID string) (*syncdomain.SyncRun, error) {
	var run syncdomain.SyncRun
	err := r.db.Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *syncRunRepository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("status IN ? AND updated_at < ?", []syncdomain.RunStatus{
		syncdomain.RunStatusCompleted,
		syncdomain.RunStatusPartial,
		syncdomain.RunStatusFailed,
	}, cutoff).Delete(&syncdomain.SyncRun{})
	return result.RowsAffected, result.Error
}
