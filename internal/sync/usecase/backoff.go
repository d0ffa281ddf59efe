package usecase

import (
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"
)

// Backoff computes re-attempt timing for failed chunks. It is not a timer:
// rows inside their backoff window are simply not selected for the next run.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
}

// NewBackoff creates a Backoff with the given base and cap
func NewBackoff(base, cap time.Duration) *Backoff {
	return &Backoff{Base: base, Cap: cap}
}

// Duration returns base * 2^attemptCount, capped
func (b *Backoff) Duration(attemptCount int) time.Duration {
	if attemptCount < 0 {
		attemptCount = 0
	}
	// Shift overflows past ~2^62; the cap makes large counts moot anyway
	if attemptCount > 30 {
		return b.Cap
	}
	d := b.Base << uint(attemptCount)
	if d > b.Cap {
		d = b.Cap
	}
	return d
}

// Eligible reports whether a row may be attempted now
func (b *Backoff) Eligible(change syncdomain.PendingChange, now time.Time) bool {
	if change.Stuck {
		return false
	}
	if change.AttemptCount == 0 || change.LastAttemptAt == nil {
		return true
	}
	return !now.Before(change.LastAttemptAt.Add(b.Duration(change.AttemptCount)))
}

// FilterEligible keeps the rows that are outside their backoff window,
// preserving queue order
func (b *Backoff) FilterEligible(changes []syncdomain.PendingChange, now time.Time) []syncdomain.PendingChange {
	eligible := make([]syncdomain.PendingChange, 0, len(changes))
	for _, change := range changes {
		if b.Eligible(change, now) {
			eligible = append(eligible, change)
		}
	}
	return eligible
}
