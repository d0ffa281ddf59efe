package domain

import (
	"errors"
	"time"
)

// RunStatus represents the current state of a sync run
type RunStatus string

const (
	RunStatusStarted    RunStatus = "started"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusPartial    RunStatus = "partial"
	RunStatusFailed     RunStatus = "failed"
)

// IsTerminal reports whether the run has finished (successfully or not)
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusPartial || s == RunStatusFailed
}

// ErrRunNotFound is returned when a run id resolves in neither progress store
var ErrRunNotFound = errors.New("sync run not found")

// SyncRun tracks the progress of one sync invocation. It is dual-written to
// a fast ephemeral store and a durable store so that a status query can be
// answered by a different process instance than the one doing the sync.
type SyncRun struct {
	RunID           string    `json:"run_id" gorm:"primaryKey"`
	Status          RunStatus `json:"status" gorm:"index;not null"`
	ProgressPercent int       `json:"progress_percent"`
	StageLabel      string    `json:"stage_label"`
	ItemsProcessed  int       `json:"items_processed"`
	ItemsTotal      int       `json:"items_total"`
	StartedAt       time.Time `json:"started_at"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"index"`
}
