package repository

import (
	"time"

	articledomain "feedbox-backend/internal/article/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleRepository provides access to locally stored article snapshots.
// Content rows are owned by the downlink sync; the sync core only reads
// update timestamps through GetLocalUpdateTimes.
type ArticleRepository interface {
	// GetLocalUpdateTimes returns last_local_update for the given remote ids.
	// Articles not present locally are absent from the map.
	GetLocalUpdateTimes(remoteIDs []string) (map[string]time.Time, error)

	// UpsertSnapshots bulk-upserts remote snapshots. Callers are expected to
	// have filtered the slice through the conflict resolver first.
	UpsertSnapshots(snapshots []articledomain.Snapshot, at time.Time) error

	FindByRemoteID(remoteID string) (*articledomain.Article, error)

	// SetReadState / SetStarState apply a local mutation and stamp
	// last_local_update, which the conflict resolver compares against the
	// sync boundary.
	SetReadState(remoteID string, read bool, at time.Time) error
	SetStarState(remoteID string, starred bool, at time.Time) error
}

// articleRepository implements ArticleRepository interface
type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new instance of articleRepository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) GetLocalUpdateTimes(remoteIDs []string) (map[string]time.Time, error) {
	if len(remoteIDs) == 0 {
		return map[string]time.Time{}, nil
	}

	type row struct {
		RemoteID        string
		LastLocalUpdate time.Time
	}
	var rows []row
	err := r.db.Model(&articledomain.Article{}).
		Select("remote_id", "last_local_update").
		Where("remote_id IN ?", remoteIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	times := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		times[row.RemoteID] = row.LastLocalUpdate
	}
	return times, nil
}

func (r *articleRepository) UpsertSnapshots(snapshots []articledomain.Snapshot, at time.Time) error {
	if len(snapshots) == 0 {
		return nil
	}

	articles := make([]articledomain.Article, 0, len(snapshots))
	for _, snap := range snapshots {
		articles = append(articles, articledomain.Article{
			ID:              uuid.New().String(),
			RemoteID:        snap.RemoteID,
			FeedID:          snap.FeedID,
			Title:           snap.Title,
			Author:          snap.Author,
			URL:             snap.URL,
			Summary:         snap.Summary,
			Read:            snap.Read,
			Starred:         snap.Starred,
			PublishedAt:     snap.PublishedAt,
			LastLocalUpdate: at,
			CreatedAt:       at,
			UpdatedAt:       at,
		})
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"feed_id", "title", "author", "url", "summary",
			"read", "starred", "published_at", "last_local_update", "updated_at",
		}),
	}).Create(&articles).Error
}

func (r *articleRepository) FindByRemoteID(remoteID string) (*articledomain.Article, error) {
	var article articledomain.Article
	err := r.db.Where("remote_id = ?", remoteID).First(&article).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) SetReadState(remoteID string, read bool, at time.Time) error {
	return r.db.Model(&articledomain.Article{}).
		Where("remote_id = ?", remoteID).
		UpdateColumns(map[string]interface{}{
			"read":              read,
			"last_local_update": at,
			"updated_at":        at,
		}).Error
}

func (r *articleRepository) SetStarState(remoteID string, starred bool, at time.Time) error {
	return r.db.Model(&articledomain.Article{}).
		Where("remote_id = ?", remoteID).
		UpdateColumns(map[string]interface{}{
			"starred":           starred,
			"last_local_update": at,
			"updated_at":        at,
		}).Error
}
