package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	articledomain "feedbox-backend/internal/article/domain"
	articlerepo "feedbox-backend/internal/article/repository"
	syncdomain "feedbox-backend/internal/sync/domain"
	"feedbox-backend/internal/sync/repository"
)

// TriggerFunc requests one batch-processing run from the scheduling layer.
// Wired after construction to avoid a usecase -> scheduler cycle.
type TriggerFunc func() (runID string, started bool)

// syncService implements SyncUsecase
type syncService struct {
	queueRepo    repository.ChangeQueueRepository
	articleRepo  articlerepo.ArticleRepository
	boundaryRepo repository.BoundaryRepository
	resolver     *ConflictResolver
	tracker      *ProgressTracker
	trigger      TriggerFunc
}

// NewSyncService creates a new instance of syncService
func NewSyncService(
	queueRepo repository.ChangeQueueRepository,
	articleRepo articlerepo.ArticleRepository,
	boundaryRepo repository.BoundaryRepository,
	resolver *ConflictResolver,
	tracker *ProgressTracker,
) SyncUsecase {
	return &syncService{
		queueRepo:    queueRepo,
		articleRepo:  articleRepo,
		boundaryRepo: boundaryRepo,
		resolver:     resolver,
		tracker:      tracker,
	}
}

// SetTriggerFunc wires the scheduler's trigger after creation
func (s *syncService) SetTriggerFunc(trigger TriggerFunc) {
	s.trigger = trigger
}

func (s *syncService) EnqueueChange(localArticleID, remoteArticleID string, action syncdomain.ActionKind) error {
	if !action.IsValid() {
		return fmt.Errorf("invalid action kind: %s", action)
	}
	if remoteArticleID == "" {
		return fmt.Errorf("remote article id is required")
	}

	// The queue row is the durable intent; it goes in first. A failure here
	// is surfaced so the caller can show the action as unsaved instead of
	// silently losing it.
	if err := s.queueRepo.Enqueue(localArticleID, remoteArticleID, action); err != nil {
		return fmt.Errorf("failed to enqueue change: %w", err)
	}

	// Mirror the toggle onto the local article row; this stamps
	// last_local_update, which the conflict resolver compares against the
	// sync boundary.
	now := time.Now()
	var err error
	switch action {
	case syncdomain.ActionMarkRead:
		err = s.articleRepo.SetReadState(remoteArticleID, true, now)
	case syncdomain.ActionMarkUnread:
		err = s.articleRepo.SetReadState(remoteArticleID, false, now)
	case syncdomain.ActionStar:
		err = s.articleRepo.SetStarState(remoteArticleID, true, now)
	case syncdomain.ActionUnstar:
		err = s.articleRepo.SetStarState(remoteArticleID, false, now)
	}
	if err != nil {
		// The intent is already queued; the local mirror catches up on the
		// next downlink sync
		log.Printf("[Sync] Failed to mirror %s locally for %s: %v", action, remoteArticleID, err)
	}
	return nil
}

func (s *syncService) TriggerSync() (string, bool, error) {
	if s.trigger == nil {
		return "", false, fmt.Errorf("sync trigger not wired")
	}
	runID, started := s.trigger()
	return runID, started, nil
}

func (s *syncService) GetRun(ctx context.Context, runID string) (*syncdomain.SyncRun, error) {
	return s.tracker.GetRun(ctx, runID)
}

func (s *syncService) ListQueue() ([]syncdomain.PendingChange, error) {
	return s.queueRepo.ListAll()
}

func (s *syncService) ResetStuck(ids []string) error {
	return s.queueRepo.ResetStuck(ids)
}

func (s *syncService) ApplySnapshots(snapshots []articledomain.Snapshot) (int, int, error) {
	apply, skipped, err := s.resolver.FilterForOverwrite(snapshots)
	if err != nil {
		return 0, 0, err
	}
	if err := s.articleRepo.UpsertSnapshots(apply, time.Now()); err != nil {
		return 0, skipped, fmt.Errorf("failed to upsert snapshots: %w", err)
	}
	return len(apply), skipped, nil
}

func (s *syncService) DownlinkCompleted(lastSyncUpdate time.Time, downlinkRunID string) (string, error) {
	if lastSyncUpdate.IsZero() {
		lastSyncUpdate = time.Now()
	}
	if err := s.boundaryRepo.Advance(lastSyncUpdate, downlinkRunID); err != nil {
		return "", fmt.Errorf("failed to advance sync boundary: %w", err)
	}

	log.Printf("[Sync] Downlink completed (boundary %s), triggering uplink tick", lastSyncUpdate.Format(time.RFC3339))

	if s.trigger == nil {
		return "", nil
	}
	runID, _ := s.trigger()
	return runID, nil
}
