package domain

import "time"

// Resolution is the outcome of a single overwrite decision
type Resolution string

const (
	ResolutionRemoteApplied Resolution = "remote_applied"
	ResolutionRemoteSkipped Resolution = "remote_skipped"
)

// ConflictRecord is an append-only diagnostic trail of overwrite decisions.
// It is never read back into the resolution logic.
type ConflictRecord struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	ArticleID   string     `json:"article_id" gorm:"index;not null"`
	LocalValue  string     `json:"local_value"`
	RemoteValue string     `json:"remote_value"`
	Resolution  Resolution `json:"resolution" gorm:"not null"`
	ObservedAt  time.Time  `json:"observed_at"`
}
