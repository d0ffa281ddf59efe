package domain

import "time"

// SyncBoundary stores the timestamp of the previous completed downlink sync.
// The conflict resolver uses it to tell "local changes since last sync" from
// stale local state. A single row is maintained by the downlink job.
type SyncBoundary struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	LastSyncUpdate time.Time `json:"last_sync_update"`
	CompletedRunID string    `json:"completed_run_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BoundaryRowID is the fixed key of the single boundary row
const BoundaryRowID = "downlink"
