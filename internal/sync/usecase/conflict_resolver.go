package usecase

import (
	"fmt"
	"log"
	"time"

	articledomain "feedbox-backend/internal/article/domain"
	articlerepo "feedbox-backend/internal/article/repository"
	syncdomain "feedbox-backend/internal/sync/domain"
	"feedbox-backend/internal/sync/repository"

	"github.com/google/uuid"
)

// ShouldApplySnapshot is the per-article overwrite decision. It is a pure
// function of its inputs so the policy is testable in isolation:
//   - article unknown locally: apply (no conflict possible)
//   - no boundary yet (first-ever sync): apply
//   - local update older than the boundary: apply (remote wins vacuously)
//   - otherwise a local mutation happened after the last completed downlink
//     sync: skip, the local value is newer than what the remote snapshot
//     was fetched against.
func ShouldApplySnapshot(existsLocally bool, lastLocalUpdate time.Time, syncBoundary *time.Time) bool {
	if !existsLocally {
		return true
	}
	if syncBoundary == nil {
		return true
	}
	return lastLocalUpdate.Before(*syncBoundary)
}

// ConflictResolver gates which freshly fetched remote snapshots may
// overwrite local article rows. Without it every downlink sync would
// silently revert read/star changes made since the previous sync.
type ConflictResolver struct {
	articleRepo  articlerepo.ArticleRepository
	boundaryRepo repository.BoundaryRepository
	conflictRepo repository.ConflictRecordRepository
}

// NewConflictResolver creates a new ConflictResolver
func NewConflictResolver(articleRepo articlerepo.ArticleRepository, boundaryRepo repository.BoundaryRepository, conflictRepo repository.ConflictRecordRepository) *ConflictResolver {
	return &ConflictResolver{
		articleRepo:  articleRepo,
		boundaryRepo: boundaryRepo,
		conflictRepo: conflictRepo,
	}
}

// FilterForOverwrite returns the subset of snapshots the caller may upsert.
// Skipped snapshots are recorded as ConflictRecords for diagnosis; a
// conflict is an expected outcome of concurrent mutation, never an error.
func (r *ConflictResolver) FilterForOverwrite(snapshots []articledomain.Snapshot) ([]articledomain.Snapshot, int, error) {
	if len(snapshots) == 0 {
		return nil, 0, nil
	}

	remoteIDs := make([]string, 0, len(snapshots))
	for _, snap := range snapshots {
		remoteIDs = append(remoteIDs, snap.RemoteID)
	}

	localTimes, err := r.articleRepo.GetLocalUpdateTimes(remoteIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load local timestamps: %w", err)
	}

	boundary, err := r.boundaryRepo.Get()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load sync boundary: %w", err)
	}
	var boundaryAt *time.Time
	if boundary != nil {
		boundaryAt = &boundary.LastSyncUpdate
	}

	apply := make([]articledomain.Snapshot, 0, len(snapshots))
	var records []syncdomain.ConflictRecord
	now := time.Now()

	for _, snap := range snapshots {
		localAt, exists := localTimes[snap.RemoteID]
		if ShouldApplySnapshot(exists, localAt, boundaryAt) {
			apply = append(apply, snap)
			continue
		}
		records = append(records, syncdomain.ConflictRecord{
			ID:          uuid.New().String(),
			ArticleID:   snap.RemoteID,
			LocalValue:  fmt.Sprintf("updated_at=%s", localAt.Format(time.RFC3339)),
			RemoteValue: fmt.Sprintf("read=%t starred=%t", snap.Read, snap.Starred),
			Resolution:  syncdomain.ResolutionRemoteSkipped,
			ObservedAt:  now,
		})
	}

	if len(records) > 0 {
		log.Printf("[Conflict] Skipped %d of %d snapshots (local changes newer than sync boundary)", len(records), len(snapshots))
		if err := r.conflictRepo.AppendAll(records); err != nil {
			// Observability only, never blocks the downlink sync
			log.Printf("[Conflict] Failed to append conflict records: %v", err)
		}
	}

	return apply, len(records), nil
}
