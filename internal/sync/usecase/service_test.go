package usecase

import (
	"testing"
	"time"

	articledomain "feedbox-backend/internal/article/domain"
	syncdomain "feedbox-backend/internal/sync/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(queue *fakeQueueRepo, articles *fakeArticleRepo, boundary *fakeBoundaryRepo) SyncUsecase {
	resolver := NewConflictResolver(articles, boundary, &fakeConflictRepo{})
	tracker := NewProgressTracker(newFakeRunCache(), newFakeRunRepo(), time.Minute, 24*time.Hour)
	return NewSyncService(queue, articles, boundary, resolver, tracker)
}

func TestEnqueueChangeValidation(t *testing.T) {
	svc := newTestService(&fakeQueueRepo{}, newFakeArticleRepo(), &fakeBoundaryRepo{})

	assert.Error(t, svc.EnqueueChange("l1", "r1", "delete"), "unknown action kinds are rejected")
	assert.Error(t, svc.EnqueueChange("l1", "", syncdomain.ActionMarkRead))
	assert.NoError(t, svc.EnqueueChange("l1", "r1", syncdomain.ActionMarkRead))
}

func TestEnqueueChangeLastActionWins(t *testing.T) {
	queue := &fakeQueueRepo{}
	svc := newTestService(queue, newFakeArticleRepo(), &fakeBoundaryRepo{})

	require.NoError(t, svc.EnqueueChange("l1", "r1", syncdomain.ActionMarkRead))
	createdAt := queue.changes[0].CreatedAt

	require.NoError(t, svc.EnqueueChange("l1", "r1", syncdomain.ActionMarkUnread))

	all, _ := queue.ListAll()
	require.Len(t, all, 1, "one live row per remote article")
	assert.Equal(t, syncdomain.ActionMarkUnread, all[0].ActionKind)
	assert.Equal(t, createdAt, all[0].CreatedAt, "replacement keeps the original queue age")
	assert.Zero(t, all[0].AttemptCount, "a new action starts its attempts fresh")
}

func TestEnqueueChangeMirrorsLocally(t *testing.T) {
	articles := newFakeArticleRepo()
	svc := newTestService(&fakeQueueRepo{}, articles, &fakeBoundaryRepo{})

	before := time.Now()
	require.NoError(t, svc.EnqueueChange("l1", "r1", syncdomain.ActionStar))

	stamped, ok := articles.updateTimes["r1"]
	require.True(t, ok, "the local article row is stamped on enqueue")
	assert.False(t, stamped.Before(before))
}

func TestTriggerSyncUnwired(t *testing.T) {
	svc := newTestService(&fakeQueueRepo{}, newFakeArticleRepo(), &fakeBoundaryRepo{})

	_, _, err := svc.TriggerSync()
	assert.Error(t, err)
}

func TestDownlinkCompleted(t *testing.T) {
	boundary := &fakeBoundaryRepo{}
	svc := newTestService(&fakeQueueRepo{}, newFakeArticleRepo(), boundary)

	triggered := 0
	svc.SetTriggerFunc(func() (string, bool) {
		triggered++
		return "run-after-downlink", true
	})

	at := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	runID, err := svc.DownlinkCompleted(at, "downlink-7")
	require.NoError(t, err)

	assert.Equal(t, "run-after-downlink", runID)
	assert.Equal(t, 1, triggered, "a completed downlink fires one uplink tick")
	require.NotNil(t, boundary.boundary)
	assert.Equal(t, at, boundary.boundary.LastSyncUpdate)
	assert.Equal(t, "downlink-7", boundary.boundary.CompletedRunID)
}

func TestDownlinkCompletedDefaultsBoundary(t *testing.T) {
	boundary := &fakeBoundaryRepo{}
	svc := newTestService(&fakeQueueRepo{}, newFakeArticleRepo(), boundary)
	svc.SetTriggerFunc(func() (string, bool) { return "run", true })

	before := time.Now()
	_, err := svc.DownlinkCompleted(time.Time{}, "")
	require.NoError(t, err)

	require.NotNil(t, boundary.boundary)
	assert.False(t, boundary.boundary.LastSyncUpdate.Before(before), "zero timestamp defaults to now")
}

func TestApplySnapshotsThroughResolver(t *testing.T) {
	articles := newFakeArticleRepo()
	boundary := &fakeBoundaryRepo{}
	svc := newTestService(&fakeQueueRepo{}, articles, boundary)

	boundaryAt := time.Now().Add(-time.Hour)
	require.NoError(t, boundary.Advance(boundaryAt, "downlink-1"))
	articles.updateTimes["locally-newer"] = time.Now()

	applied, skipped, err := svc.ApplySnapshots([]articledomain.Snapshot{
		{RemoteID: "locally-newer", Read: true},
		{RemoteID: "brand-new", Read: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, skipped)
	require.Len(t, articles.upserted, 1)
	assert.Equal(t, "brand-new", articles.upserted[0].RemoteID)
}
