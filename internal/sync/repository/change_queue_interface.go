package repository

import (
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"
)

// ChangeQueueRepository is the durable store of pending local mutations
// awaiting uplink. It must support concurrent enqueue from user-action call
// sites while the batch processor reads and deletes rows.
type ChangeQueueRepository interface {
	// Enqueue inserts a pending change, or replaces the action of the live
	// row for the same remote article (last action wins). CreatedAt of an
	// existing row is preserved so queue age reflects the oldest unsynced
	// intent; AttemptCount is reset because the action is new.
	Enqueue(localArticleID, remoteArticleID string, action syncdomain.ActionKind) error

	// ListPending returns non-stuck rows oldest-first.
	ListPending() ([]syncdomain.PendingChange, error)

	// ListAll returns every queue row, stuck ones included, oldest-first.
	ListAll() ([]syncdomain.PendingChange, error)

	// DequeueSuccess removes rows after a successful uplink.
	DequeueSuccess(ids []string) error

	// DequeueFailure records a failed attempt for the given rows and flags
	// rows that exhausted their attempts as stuck. It returns the rows that
	// became stuck by this call so the processor can alert on them.
	DequeueFailure(ids []string, at time.Time) ([]syncdomain.PendingChange, error)

	// ResetStuck clears the stuck flag and attempt count of the given rows
	// (operator intervention).
	ResetStuck(ids []string) error
}
