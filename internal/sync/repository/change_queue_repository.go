package repository

import (
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// changeQueueRepository implements ChangeQueueRepository on Postgres
type changeQueueRepository struct {
	db *gorm.DB
}

// NewChangeQueueRepository creates a new instance of changeQueueRepository
func NewChangeQueueRepository(db *gorm.DB) ChangeQueueRepository {
	return &changeQueueRepository{db: db}
}

func (r *changeQueueRepository) Enqueue(localArticleID, remoteArticleID string, action syncdomain.ActionKind) error {
	now := time.Now()
	change := syncdomain.PendingChange{
		ID:              uuid.New().String(),
		LocalArticleID:  localArticleID,
		RemoteArticleID: remoteArticleID,
		ActionKind:      action,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Insert-or-replace keyed by remote_article_id. created_at is deliberately
	// left out of the assignment list: the row's age must keep reflecting the
	// oldest unsynced intent for the staleness trigger.
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "remote_article_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"local_article_id": localArticleID,
			"action_kind":      action,
			"attempt_count":    0,
			"last_attempt_at":  nil,
			"stuck":            false,
			"updated_at":       now,
		}),
	}).Create(&change).Error
}

func (r *changeQueueRepository) ListPending() ([]syncdomain.PendingChange, error) {
	var changes []syncdomain.PendingChange
	err := r.db.Where("stuck = ?", false).Order("created_at ASC").Find(&changes).Error
	return changes, err
}

func (r *changeQueueRepository) ListAll() ([]syncdomain.PendingChange, error) {
	var changes []syncdomain.PendingChange
	err := r.db.Order("created_at ASC").Find(&changes).Error
	return changes, err
}

func (r *changeQueueRepository) DequeueSuccess(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&syncdomain.PendingChange{}).Error
}

func (r *changeQueueRepository) DequeueFailure(ids []string, at time.Time) ([]syncdomain.PendingChange, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	err := r.db.Model(&syncdomain.PendingChange{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]interface{}{
			"attempt_count":   gorm.Expr("attempt_count + 1"),
			"last_attempt_at": at,
			"updated_at":      at,
		}).Error
	if err != nil {
		return nil, err
	}

	// Flag rows that just exhausted their attempts. They stay in the queue:
	// silently dropping a user's read/star action is the worst failure mode
	// this subsystem can have.
	err = r.db.Model(&syncdomain.PendingChange{}).
		Where("id IN ? AND stuck = ? AND attempt_count >= ?", ids, false, syncdomain.MaxAttempts).
		UpdateColumn("stuck", true).Error
	if err != nil {
		return nil, err
	}

	var newlyStuck []syncdomain.PendingChange
	err = r.db.Where("id IN ? AND stuck = ? AND attempt_count = ?", ids, true, syncdomain.MaxAttempts).
		Find(&newlyStuck).Error
	return newlyStuck, err
}

func (r *changeQueueRepository) ResetStuck(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&syncdomain.PendingChange{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]interface{}{
			"stuck":           false,
			"attempt_count":   0,
			"last_attempt_at": nil,
			"updated_at":      time.Now(),
		}).Error
}
