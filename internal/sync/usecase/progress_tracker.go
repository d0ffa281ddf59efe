package usecase

import (
	"context"
	"log"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"
	"feedbox-backend/internal/sync/repository"
)

// ProgressTracker publishes sync run status to two stores on every update:
// Redis (fast, ephemeral) and Postgres (durable). The process answering a
// status query may not be the one that ran the sync, so an in-memory or
// cache-only record would produce false not-found responses after restarts.
type ProgressTracker struct {
	cache     repository.RunCache
	durable   repository.SyncRunRepository
	linger    time.Duration // delay before the cache entry of a finished run disappears
	retention time.Duration // durable retention after terminal state
}

// NewProgressTracker creates a new ProgressTracker
func NewProgressTracker(cache repository.RunCache, durable repository.SyncRunRepository, linger, retention time.Duration) *ProgressTracker {
	return &ProgressTracker{
		cache:     cache,
		durable:   durable,
		linger:    linger,
		retention: retention,
	}
}

// StartRun records a new run in the started state
func (t *ProgressTracker) StartRun(ctx context.Context, runID string) *syncdomain.SyncRun {
	now := time.Now()
	run := &syncdomain.SyncRun{
		RunID:     runID,
		Status:    syncdomain.RunStatusStarted,
		StartedAt: now,
		UpdatedAt: now,
	}
	t.write(ctx, run)
	return run
}

// Update publishes an in-progress snapshot of the run
func (t *ProgressTracker) Update(ctx context.Context, run *syncdomain.SyncRun) {
	run.Status = syncdomain.RunStatusInProgress
	run.UpdatedAt = time.Now()
	t.write(ctx, run)
}

// Finish publishes the terminal state and schedules delayed cache cleanup
func (t *ProgressTracker) Finish(ctx context.Context, run *syncdomain.SyncRun, status syncdomain.RunStatus) {
	run.Status = status
	if status == syncdomain.RunStatusCompleted {
		run.ProgressPercent = 100
	}
	run.UpdatedAt = time.Now()
	t.write(ctx, run)

	// Not deleted immediately: a client polling right at completion must
	// still be able to read the final state.
	if err := t.cache.ExpireAfter(ctx, run.RunID, t.linger); err != nil {
		log.Printf("[Progress] Failed to schedule cache expiry for run %s: %v", run.RunID, err)
	}
}

// GetRun resolves a run fast-store-first with durable fallback
func (t *ProgressTracker) GetRun(ctx context.Context, runID string) (*syncdomain.SyncRun, error) {
	run, err := t.cache.Find(ctx, runID)
	if err != nil {
		// A broken cache must not make progress unqueryable
		log.Printf("[Progress] Cache read failed for run %s, falling back to durable store: %v", runID, err)
	}
	if run != nil {
		return run, nil
	}

	run, err = t.durable.FindByRunID(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, syncdomain.ErrRunNotFound
	}
	return run, nil
}

// PurgeExpired removes terminal durable rows past the retention window
func (t *ProgressTracker) PurgeExpired() {
	purged, err := t.durable.PurgeOlderThan(time.Now().Add(-t.retention))
	if err != nil {
		log.Printf("[Progress] Purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("[Progress] Purged %d expired sync runs", purged)
	}
}

// write dual-writes the run. A durable-store failure is logged, never
// propagated: progress reporting is best-effort relative to the sync's
// actual work, and the fast-store write is still attempted.
func (t *ProgressTracker) write(ctx context.Context, run *syncdomain.SyncRun) {
	if err := t.durable.Save(run); err != nil {
		log.Printf("[Progress] Durable write failed for run %s: %v", run.RunID, err)
	}
	if err := t.cache.Save(ctx, run); err != nil {
		log.Printf("[Progress] Cache write failed for run %s: %v", run.RunID, err)
	}
}
