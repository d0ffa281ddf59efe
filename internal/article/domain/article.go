package domain

import "time"

// Article is a locally stored snapshot of a remote feed item. Content rows
// are owned by the downlink content sync; the sync core only reads the
// LastLocalUpdate timestamp when filtering overwrites.
type Article struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	RemoteID        string     `json:"remote_id" gorm:"uniqueIndex;not null"`
	FeedID          string     `json:"feed_id" gorm:"index"`
	Title           string     `json:"title"`
	Author          string     `json:"author,omitempty"`
	URL             string     `json:"url"`
	Summary         string     `json:"summary,omitempty"`
	Read            bool       `json:"read" gorm:"default:false;index"`
	Starred         bool       `json:"starred" gorm:"default:false;index"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	LastLocalUpdate time.Time  `json:"last_local_update" gorm:"index"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Snapshot is a freshly fetched remote article the downlink sync wants to
// upsert locally. ReadState/StarState carry the remote-side flags so the
// conflict log can record both sides of a skipped overwrite.
type Snapshot struct {
	RemoteID    string     `json:"remote_id"`
	FeedID      string     `json:"feed_id"`
	Title       string     `json:"title"`
	Author      string     `json:"author,omitempty"`
	URL         string     `json:"url"`
	Summary     string     `json:"summary,omitempty"`
	Read        bool       `json:"read"`
	Starred     bool       `json:"starred"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
