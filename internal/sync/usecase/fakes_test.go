package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	articledomain "feedbox-backend/internal/article/domain"
	syncdomain "feedbox-backend/internal/sync/domain"
)

// In-memory doubles for the repository interfaces. Behavior mirrors the
// gorm-backed implementations closely enough for policy-level tests.

type fakeQueueRepo struct {
	mu      sync.Mutex
	changes []syncdomain.PendingChange
	nextID  int
}

func (f *fakeQueueRepo) Enqueue(localID, remoteID string, action syncdomain.ActionKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for i := range f.changes {
		if f.changes[i].RemoteArticleID == remoteID {
			f.changes[i].ActionKind = action
			f.changes[i].AttemptCount = 0
			f.changes[i].LastAttemptAt = nil
			f.changes[i].Stuck = false
			f.changes[i].UpdatedAt = now
			return nil
		}
	}
	f.nextID++
	f.changes = append(f.changes, syncdomain.PendingChange{
		ID:              fmt.Sprintf("change-%d", f.nextID),
		LocalArticleID:  localID,
		RemoteArticleID: remoteID,
		ActionKind:      action,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	return nil
}

func (f *fakeQueueRepo) ListPending() ([]syncdomain.PendingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]syncdomain.PendingChange, 0, len(f.changes))
	for _, c := range f.changes {
		if !c.Stuck {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeQueueRepo) ListAll() ([]syncdomain.PendingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]syncdomain.PendingChange(nil), f.changes...), nil
}

func (f *fakeQueueRepo) DequeueSuccess(ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	keep := f.changes[:0]
	for _, c := range f.changes {
		if !containsID(ids, c.ID) {
			keep = append(keep, c)
		}
	}
	f.changes = keep
	return nil
}

func (f *fakeQueueRepo) DequeueFailure(ids []string, at time.Time) ([]syncdomain.PendingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newlyStuck []syncdomain.PendingChange
	for i := range f.changes {
		if !containsID(ids, f.changes[i].ID) {
			continue
		}
		f.changes[i].AttemptCount++
		t := at
		f.changes[i].LastAttemptAt = &t
		if f.changes[i].AttemptCount >= syncdomain.MaxAttempts && !f.changes[i].Stuck {
			f.changes[i].Stuck = true
			newlyStuck = append(newlyStuck, f.changes[i])
		}
	}
	return newlyStuck, nil
}

func (f *fakeQueueRepo) ResetStuck(ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.changes {
		if containsID(ids, f.changes[i].ID) {
			f.changes[i].Stuck = false
			f.changes[i].AttemptCount = 0
			f.changes[i].LastAttemptAt = nil
		}
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

type fakeUsageRepo struct {
	mu       sync.Mutex
	counters map[string]*syncdomain.UsageCounter
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counters: make(map[string]*syncdomain.UsageCounter)}
}

func (f *fakeUsageRepo) FindOrCreate(windowID string, callsLimit int, resetsAt time.Time) (*syncdomain.UsageCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.counters[windowID]; ok {
		copied := *c
		return &copied, nil
	}
	c := &syncdomain.UsageCounter{
		ID:         windowID,
		WindowID:   windowID,
		CallsLimit: callsLimit,
		ResetsAt:   resetsAt,
	}
	f.counters[windowID] = c
	copied := *c
	return &copied, nil
}

func (f *fakeUsageRepo) AddCalls(windowID string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.counters[windowID]; ok {
		c.CallsUsed += n
	}
	return nil
}

type fakeArticleRepo struct {
	mu          sync.Mutex
	updateTimes map[string]time.Time
	upserted    []articledomain.Snapshot
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{updateTimes: make(map[string]time.Time)}
}

func (f *fakeArticleRepo) GetLocalUpdateTimes(remoteIDs []string) (map[string]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]time.Time)
	for _, id := range remoteIDs {
		if t, ok := f.updateTimes[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *fakeArticleRepo) UpsertSnapshots(snapshots []articledomain.Snapshot, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, snapshots...)
	for _, snap := range snapshots {
		f.updateTimes[snap.RemoteID] = at
	}
	return nil
}

func (f *fakeArticleRepo) FindByRemoteID(remoteID string) (*articledomain.Article, error) {
	return nil, nil
}

func (f *fakeArticleRepo) SetReadState(remoteID string, read bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateTimes[remoteID] = at
	return nil
}

func (f *fakeArticleRepo) SetStarState(remoteID string, starred bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateTimes[remoteID] = at
	return nil
}

type fakeBoundaryRepo struct {
	boundary *syncdomain.SyncBoundary
}

func (f *fakeBoundaryRepo) Get() (*syncdomain.SyncBoundary, error) {
	return f.boundary, nil
}

func (f *fakeBoundaryRepo) Advance(lastSyncUpdate time.Time, runID string) error {
	f.boundary = &syncdomain.SyncBoundary{
		ID:             syncdomain.BoundaryRowID,
		LastSyncUpdate: lastSyncUpdate,
		CompletedRunID: runID,
		UpdatedAt:      time.Now(),
	}
	return nil
}

type fakeConflictRepo struct {
	records []syncdomain.ConflictRecord
}

func (f *fakeConflictRepo) AppendAll(records []syncdomain.ConflictRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeConflictRepo) ListRecent(limit int) ([]syncdomain.ConflictRecord, error) {
	return f.records, nil
}

type fakeAccountRepo struct {
	account *syncdomain.RemoteAccount
}

func (f *fakeAccountRepo) Get() (*syncdomain.RemoteAccount, error) {
	return f.account, nil
}

func (f *fakeAccountRepo) Save(account *syncdomain.RemoteAccount) error {
	f.account = account
	return nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens []syncdomain.DeviceToken
}

func (f *fakeTokenRepo) SaveToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, syncdomain.DeviceToken{ID: token, Token: token})
	return nil
}

func (f *fakeTokenRepo) GetTokens() ([]syncdomain.DeviceToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]syncdomain.DeviceToken(nil), f.tokens...), nil
}

func (f *fakeTokenRepo) DeleteToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	keep := f.tokens[:0]
	for _, t := range f.tokens {
		if t.Token != token {
			keep = append(keep, t)
		}
	}
	f.tokens = keep
	return nil
}

type fakeRunCache struct {
	mu   sync.Mutex
	runs map[string]syncdomain.SyncRun
	// set to force cache reads to fail
	findErr error
}

func newFakeRunCache() *fakeRunCache {
	return &fakeRunCache{runs: make(map[string]syncdomain.SyncRun)}
}

func (f *fakeRunCache) Save(ctx context.Context, run *syncdomain.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.RunID] = *run
	return nil
}

func (f *fakeRunCache) Find(ctx context.Context, runID string) (*syncdomain.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if run, ok := f.runs[runID]; ok {
		copied := run
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRunCache) ExpireAfter(ctx context.Context, runID string, d time.Duration) error {
	return nil
}

func (f *fakeRunCache) drop(runID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.runs, runID)
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs map[string]syncdomain.SyncRun
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[string]syncdomain.SyncRun)}
}

func (f *fakeRunRepo) Save(run *syncdomain.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.RunID] = *run
	return nil
}

func (f *fakeRunRepo) FindByRunID(runID string) (*syncdomain.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run, ok := f.runs[runID]; ok {
		copied := run
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRunRepo) PurgeOlderThan(cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	for id, run := range f.runs {
		if run.Status.IsTerminal() && run.UpdatedAt.Before(cutoff) {
			delete(f.runs, id)
			purged++
		}
	}
	return purged, nil
}

// readerCall records one ApplyBatch invocation
type readerCall struct {
	action    syncdomain.ActionKind
	remoteIDs []string
}

// fakeReader scripts ApplyBatch outcomes in order; the last entry repeats
type fakeReader struct {
	mu      sync.Mutex
	calls   []readerCall
	results []syncdomain.UplinkResult
	errs    []error
}

func (f *fakeReader) ApplyBatch(ctx context.Context, accessToken, refreshToken string, action syncdomain.ActionKind, remoteIDs []string, onTokenRefresh syncdomain.TokenUpdateFunc) (syncdomain.UplinkResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.calls)
	f.calls = append(f.calls, readerCall{action: action, remoteIDs: append([]string(nil), remoteIDs...)})
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	if idx < 0 {
		return syncdomain.UplinkResult{Status: syncdomain.UplinkOK}, nil
	}
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return f.results[idx], err
}

func (f *fakeReader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
