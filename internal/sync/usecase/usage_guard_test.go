package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageGuardBudget(t *testing.T) {
	repo := newFakeUsageRepo()
	guard := NewUsageGuard(repo, 100)

	remaining, err := guard.RemainingBudget()
	require.NoError(t, err)
	assert.Equal(t, 100, remaining)

	require.NoError(t, guard.RecordCall(3))
	remaining, err = guard.RemainingBudget()
	require.NoError(t, err)
	assert.Equal(t, 97, remaining)
}

func TestUsageGuardExhaustion(t *testing.T) {
	repo := newFakeUsageRepo()
	guard := NewUsageGuard(repo, 2)

	require.NoError(t, guard.RecordCall(2))
	remaining, err := guard.RemainingBudget()
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// Overshoot must not produce a negative budget
	require.NoError(t, guard.RecordCall(1))
	remaining, err = guard.RemainingBudget()
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestUsageGuardWindowRollover(t *testing.T) {
	repo := newFakeUsageRepo()
	guard := NewUsageGuard(repo, 10)

	day1 := time.Date(2026, 8, 24, 23, 50, 0, 0, time.UTC)
	guard.now = func() time.Time { return day1 }
	require.NoError(t, guard.RecordCall(10))

	remaining, err := guard.RemainingBudget()
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// Crossing UTC midnight opens a fresh window with a full budget
	guard.now = func() time.Time { return day1.Add(15 * time.Minute) }
	remaining, err = guard.RemainingBudget()
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)
}
