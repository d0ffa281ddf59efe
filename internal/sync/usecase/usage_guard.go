package usecase

import (
	"time"

	"feedbox-backend/internal/sync/repository"
)

// UsageGuard tracks the remote API call budget against the daily quota.
// It carries no locking of its own: the batch processor's single-flight
// gate is what keeps check-then-record correct.
type UsageGuard struct {
	counterRepo repository.UsageCounterRepository
	dailyLimit  int
	now         func() time.Time
}

// NewUsageGuard creates a new UsageGuard
func NewUsageGuard(counterRepo repository.UsageCounterRepository, dailyLimit int) *UsageGuard {
	return &UsageGuard{
		counterRepo: counterRepo,
		dailyLimit:  dailyLimit,
		now:         time.Now,
	}
}

// RemainingBudget returns how many remote calls are left in the current
// daily window
func (g *UsageGuard) RemainingBudget() (int, error) {
	windowID, resetsAt := g.currentWindow()
	counter, err := g.counterRepo.FindOrCreate(windowID, g.dailyLimit, resetsAt)
	if err != nil {
		return 0, err
	}
	remaining := counter.CallsLimit - counter.CallsUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// RecordCall consumes n calls from the current window
func (g *UsageGuard) RecordCall(n int) error {
	windowID, resetsAt := g.currentWindow()
	if _, err := g.counterRepo.FindOrCreate(windowID, g.dailyLimit, resetsAt); err != nil {
		return err
	}
	return g.counterRepo.AddCalls(windowID, n)
}

// currentWindow keys quota windows by UTC date
func (g *UsageGuard) currentWindow() (string, time.Time) {
	now := g.now().UTC()
	windowID := now.Format("2006-01-02")
	resetsAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return windowID, resetsAt
}
