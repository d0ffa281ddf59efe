package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"
	"feedbox-backend/internal/sync/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateQueueRepo blocks ListPending until released so tests can hold a run
// open while probing the scheduler's single-flight behavior
type gateQueueRepo struct {
	gate chan struct{}
}

func (g *gateQueueRepo) Enqueue(localID, remoteID string, action syncdomain.ActionKind) error {
	return nil
}

func (g *gateQueueRepo) ListPending() ([]syncdomain.PendingChange, error) {
	if g.gate != nil {
		<-g.gate
	}
	return nil, nil
}

func (g *gateQueueRepo) ListAll() ([]syncdomain.PendingChange, error) { return nil, nil }

func (g *gateQueueRepo) DequeueSuccess(ids []string) error { return nil }

func (g *gateQueueRepo) DequeueFailure(ids []string, at time.Time) ([]syncdomain.PendingChange, error) {
	return nil, nil
}

func (g *gateQueueRepo) ResetStuck(ids []string) error { return nil }

type memRunCache struct {
	mu   sync.Mutex
	runs map[string]syncdomain.SyncRun
}

func (m *memRunCache) Save(ctx context.Context, run *syncdomain.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = *run
	return nil
}

func (m *memRunCache) Find(ctx context.Context, runID string) (*syncdomain.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[runID]; ok {
		copied := run
		return &copied, nil
	}
	return nil, nil
}

func (m *memRunCache) ExpireAfter(ctx context.Context, runID string, d time.Duration) error {
	return nil
}

type memRunRepo struct {
	mu   sync.Mutex
	runs map[string]syncdomain.SyncRun
}

func (m *memRunRepo) Save(run *syncdomain.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = *run
	return nil
}

func (m *memRunRepo) FindByRunID(runID string) (*syncdomain.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[runID]; ok {
		copied := run
		return &copied, nil
	}
	return nil, nil
}

func (m *memRunRepo) PurgeOlderThan(cutoff time.Time) (int64, error) { return 0, nil }

func newTestScheduler(queue *gateQueueRepo, debounce time.Duration) (*SyncScheduler, *memRunRepo) {
	runRepo := &memRunRepo{runs: make(map[string]syncdomain.SyncRun)}
	tracker := usecase.NewProgressTracker(&memRunCache{runs: make(map[string]syncdomain.SyncRun)}, runRepo, time.Minute, 24*time.Hour)
	guard := usecase.NewUsageGuard(nil, 100)
	backoff := usecase.NewBackoff(30*time.Second, 30*time.Minute)

	// The reader and account repo are never reached: the gate queue resolves
	// to an empty queue, so runs finish in the trigger-policy check
	processor := usecase.NewBatchProcessor(queue, nil, nil, nil, guard, backoff, tracker, nil, usecase.BatchProcessorConfig{
		MinBatchSize: 5,
		MaxStaleness: 15 * time.Minute,
		ChunkSize:    100,
		CallTimeout:  5 * time.Second,
	})

	return NewSyncScheduler(processor, tracker, time.Hour, debounce), runRepo
}

func TestTriggerSyncSingleFlight(t *testing.T) {
	gate := make(chan struct{})
	queue := &gateQueueRepo{gate: gate}
	s, runRepo := newTestScheduler(queue, 0)

	runID, started := s.TriggerSync()
	require.True(t, started)
	require.NotEmpty(t, runID)

	// The first run is blocked inside ListPending; further triggers must
	// coalesce onto it instead of starting a second run
	coalescedID, coalescedStarted := s.TriggerSync()
	assert.False(t, coalescedStarted)
	assert.Equal(t, runID, coalescedID)

	close(gate)

	require.Eventually(t, func() bool {
		run, err := runRepo.FindByRunID(runID)
		return err == nil && run != nil && run.Status.IsTerminal()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTriggerSyncDebounce(t *testing.T) {
	queue := &gateQueueRepo{}
	s, runRepo := newTestScheduler(queue, 500*time.Millisecond)

	runID, started := s.TriggerSync()
	require.True(t, started)

	require.Eventually(t, func() bool {
		run, err := runRepo.FindByRunID(runID)
		return err == nil && run != nil && run.Status.IsTerminal()
	}, 2*time.Second, 10*time.Millisecond)

	// Even with the first run finished, a trigger inside the debounce window
	// is coalesced
	secondID, secondStarted := s.TriggerSync()
	assert.False(t, secondStarted)
	assert.Equal(t, runID, secondID)
}

func TestStopIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(&gateQueueRepo{}, 0)
	s.Start()
	s.Stop()
	s.Stop()
}
