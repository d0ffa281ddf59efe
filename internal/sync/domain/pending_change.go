package domain

import "time"

// ActionKind represents a local state mutation awaiting uplink
type ActionKind string

const (
	ActionMarkRead   ActionKind = "mark_read"
	ActionMarkUnread ActionKind = "mark_unread"
	ActionStar       ActionKind = "star"
	ActionUnstar     ActionKind = "unstar"
)

// IsValid reports whether the action kind is one of the four supported mutations
func (a ActionKind) IsValid() bool {
	switch a {
	case ActionMarkRead, ActionMarkUnread, ActionStar, ActionUnstar:
		return true
	}
	return false
}

// MaxAttempts is the number of real uplink attempts before a row is flagged stuck.
// Stuck rows stay in the queue for operator visibility and are never auto-deleted.
const MaxAttempts = 3

// PendingChange is a queued, not-yet-uplinked state mutation.
// At most one live row exists per remote article: a newer action for the
// same article replaces the previous one (last action wins) while CreatedAt
// keeps the age of the oldest unsynced intent.
type PendingChange struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	LocalArticleID  string     `json:"local_article_id" gorm:"index;not null"`
	RemoteArticleID string     `json:"remote_article_id" gorm:"uniqueIndex;not null"`
	ActionKind      ActionKind `json:"action_kind" gorm:"not null"`
	AttemptCount    int        `json:"attempt_count" gorm:"default:0"`
	LastAttemptAt   *time.Time `json:"last_attempt_at,omitempty"`
	Stuck           bool       `json:"stuck" gorm:"default:false;index"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
