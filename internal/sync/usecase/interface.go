package usecase

import (
	"context"
	"time"

	articledomain "feedbox-backend/internal/article/domain"
	syncdomain "feedbox-backend/internal/sync/domain"
)

// SyncUsecase is the surface the delivery layer and the downlink
// collaborator depend on
type SyncUsecase interface {
	// SetTriggerFunc wires the scheduler's trigger after creation
	SetTriggerFunc(trigger TriggerFunc)

	// EnqueueChange records a local state toggle: applies it to the local
	// article row and inserts (or replaces) the pending uplink intent.
	// Sits on the interactive path, so it does nothing but two row writes.
	EnqueueChange(localArticleID, remoteArticleID string, action syncdomain.ActionKind) error

	// TriggerSync requests one immediate batch-processing attempt and
	// returns the run id to poll. A trigger arriving while a run is active
	// or within the debounce window is coalesced onto the active run.
	TriggerSync() (runID string, started bool, err error)

	// GetRun resolves run progress (fast store first, durable fallback)
	GetRun(ctx context.Context, runID string) (*syncdomain.SyncRun, error)

	// ListQueue returns all queue rows, stuck ones included
	ListQueue() ([]syncdomain.PendingChange, error)

	// ResetStuck clears stuck flags after operator intervention
	ResetStuck(ids []string) error

	// ApplySnapshots filters the snapshots through the conflict resolver
	// and upserts the ones that may overwrite local state. Returns how many
	// were applied and how many were skipped.
	ApplySnapshots(snapshots []articledomain.Snapshot) (applied, skipped int, err error)

	// DownlinkCompleted is the "sync just completed" hook the downlink job
	// must call: it advances the sync boundary and fires one immediate
	// batch-processing tick so freshly queued changes don't wait for the
	// next scheduled run.
	DownlinkCompleted(lastSyncUpdate time.Time, downlinkRunID string) (uplinkRunID string, err error)
}
