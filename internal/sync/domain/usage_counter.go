package domain

import "time"

// UsageCounter tracks remote API calls consumed within one quota window.
// One live row per window; a new window supersedes the old row without
// deleting it.
type UsageCounter struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	WindowID   string    `json:"window_id" gorm:"uniqueIndex;not null"` // UTC date, e.g. "2026-08-24"
	CallsUsed  int       `json:"calls_used"`
	CallsLimit int       `json:"calls_limit"`
	ResetsAt   time.Time `json:"resets_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
