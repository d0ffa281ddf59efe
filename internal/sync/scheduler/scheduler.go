package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"feedbox-backend/internal/sync/usecase"

	"github.com/google/uuid"
)

// purgeInterval drives durable progress-row retention cleanup
const purgeInterval = 1 * time.Hour

// SyncScheduler owns the batch processor's execution: the periodic tick and
// the manual trigger share one mutual-exclusion gate, so at most one run is
// active at a time and a trigger arriving mid-run is coalesced, not queued.
type SyncScheduler struct {
	processor *usecase.BatchProcessor
	tracker   *usecase.ProgressTracker
	interval  time.Duration
	debounce  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once

	mu            sync.Mutex
	running       bool
	lastTriggerAt time.Time
	lastRunID     string
}

// NewSyncScheduler creates a new scheduler
func NewSyncScheduler(processor *usecase.BatchProcessor, tracker *usecase.ProgressTracker, interval, debounce time.Duration) *SyncScheduler {
	return &SyncScheduler{
		processor: processor,
		tracker:   tracker,
		interval:  interval,
		debounce:  debounce,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the periodic tick and retention purge loops
func (s *SyncScheduler) Start() {
	log.Printf("[SyncScheduler] Starting batch processor loop (interval: %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.TriggerSync()
			case <-s.stopChan:
				log.Println("[SyncScheduler] Scheduler stopped")
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.tracker.PurgeExpired()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// TriggerSync requests one batch-processing run. When a run is already
// active, or another trigger landed inside the debounce window, the call is
// coalesced and the active run's id is returned with started=false.
func (s *SyncScheduler) TriggerSync() (string, bool) {
	s.mu.Lock()
	now := time.Now()
	if s.running || now.Sub(s.lastTriggerAt) < s.debounce {
		runID := s.lastRunID
		s.mu.Unlock()
		return runID, false
	}

	runID := uuid.New().String()
	s.running = true
	s.lastTriggerAt = now
	s.lastRunID = runID
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()

		if err := s.processor.RunOnce(context.Background(), runID); err != nil {
			log.Printf("[SyncScheduler] Run %s failed: %v", runID, err)
		}
	}()

	return runID, true
}
