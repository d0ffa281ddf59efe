package repository

import (
	syncdomain "feedbox-backend/internal/sync/domain"

	"gorm.io/gorm"
)

// ConflictRecordRepository appends overwrite decisions for diagnosis.
// Records are write-only from the sync core's point of view.
type ConflictRecordRepository interface {
	AppendAll(records []syncdomain.ConflictRecord) error
	ListRecent(limit int) ([]syncdomain.ConflictRecord, error)
}

// conflictRecordRepository implements ConflictRecordRepository interface
type conflictRecordRepository struct {
	db *gorm.DB
}

// NewConflictRecordRepository creates a new instance of conflictRecordRepository
func NewConflictRecordRepository(db *gorm.DB) ConflictRecordRepository {
	return &conflictRecordRepository{db: db}
}

func (r *conflictRecordRepository) AppendAll(records []syncdomain.ConflictRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Create(&records).Error
}

func (r *conflictRecordRepository) ListRecent(limit int) ([]syncdomain.ConflictRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []syncdomain.ConflictRecord
	err := r.db.Order("observed_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
