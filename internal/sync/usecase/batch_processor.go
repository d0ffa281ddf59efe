package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"
	"feedbox-backend/internal/sync/repository"
	"feedbox-backend/pkg/fcm"

	"golang.org/x/oauth2"
)

// BatchProcessorConfig holds the scheduling and chunking knobs
type BatchProcessorConfig struct {
	MinBatchSize int           // trigger condition (b): pending count threshold
	MaxStaleness time.Duration // trigger condition (c): oldest-row age bound
	ChunkSize    int           // remote API per-call item limit
	CallTimeout  time.Duration // per remote call
}

// BatchProcessor drains the change queue toward the reader service. One run
// at a time: the scheduler's single-flight gate is what makes the budget
// check and the rate-limit gate correct, so nothing here takes locks.
type BatchProcessor struct {
	queueRepo   repository.ChangeQueueRepository
	accountRepo repository.AccountRepository
	tokenRepo   repository.DeviceTokenRepository
	reader      syncdomain.ReaderProvider
	guard       *UsageGuard
	backoff     *Backoff
	tracker     *ProgressTracker
	fcmClient   *fcm.Client // optional operator alerting
	cfg         BatchProcessorConfig

	// earliest moment the next remote call may happen after a 429
	deferUntil time.Time
	now        func() time.Time
}

// NewBatchProcessor creates a new BatchProcessor
func NewBatchProcessor(
	queueRepo repository.ChangeQueueRepository,
	accountRepo repository.AccountRepository,
	tokenRepo repository.DeviceTokenRepository,
	reader syncdomain.ReaderProvider,
	guard *UsageGuard,
	backoff *Backoff,
	tracker *ProgressTracker,
	fcmClient *fcm.Client,
	cfg BatchProcessorConfig,
) *BatchProcessor {
	return &BatchProcessor{
		queueRepo:   queueRepo,
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		reader:      reader,
		guard:       guard,
		backoff:     backoff,
		tracker:     tracker,
		fcmClient:   fcmClient,
		cfg:         cfg,
		now:         time.Now,
	}
}

// chunk is one remote call's worth of queue rows sharing an action kind
type chunk struct {
	action  syncdomain.ActionKind
	changes []syncdomain.PendingChange
}

// RunOnce executes one batch-processing tick under the caller's single-flight
// guarantee. It loads the queue, applies the trigger policy, and uplinks
// chunks sequentially until done, deferred, or out of budget.
func (p *BatchProcessor) RunOnce(ctx context.Context, runID string) error {
	now := p.now()
	run := p.tracker.StartRun(ctx, runID)

	all, err := p.queueRepo.ListPending()
	if err != nil {
		run.StageLabel = "loading queue"
		p.tracker.Finish(ctx, run, syncdomain.RunStatusFailed)
		return fmt.Errorf("failed to load pending changes: %w", err)
	}

	eligible := p.backoff.FilterEligible(all, now)
	if !p.shouldProcess(eligible, now) {
		run.StageLabel = "no work"
		p.tracker.Finish(ctx, run, syncdomain.RunStatusCompleted)
		return nil
	}

	if now.Before(p.deferUntil) {
		// Still inside a rate-limit window: rows keep waiting without any
		// attempt penalty.
		log.Printf("[BatchProcessor] Rate limited until %s, deferring %d changes", p.deferUntil.Format(time.RFC3339), len(eligible))
		run.StageLabel = "rate limited"
		p.tracker.Finish(ctx, run, syncdomain.RunStatusPartial)
		return nil
	}

	account, err := p.accountRepo.Get()
	if err != nil {
		p.tracker.Finish(ctx, run, syncdomain.RunStatusFailed)
		return fmt.Errorf("failed to load remote account: %w", err)
	}
	if account == nil {
		p.tracker.Finish(ctx, run, syncdomain.RunStatusFailed)
		return fmt.Errorf("remote account not provisioned")
	}

	chunks := buildChunks(eligible, p.cfg.ChunkSize)
	run.ItemsTotal = len(eligible)
	run.StageLabel = "uplinking"
	p.tracker.Update(ctx, run)

	log.Printf("[BatchProcessor] Run %s: %d changes in %d chunks", runID, len(eligible), len(chunks))

	deferred := false
	failures := 0
	for _, c := range chunks {
		if deferred {
			break
		}

		budget, err := p.guard.RemainingBudget()
		if err != nil {
			p.tracker.Finish(ctx, run, syncdomain.RunStatusFailed)
			return fmt.Errorf("failed to check usage budget: %w", err)
		}
		if budget < 1 {
			// Deferral, not an error: the rest of the queue waits for the
			// next window.
			log.Printf("[BatchProcessor] Daily budget exhausted, deferring %d remaining changes", run.ItemsTotal-run.ItemsProcessed)
			break
		}

		result, callErr := p.uplinkChunk(ctx, account, c)
		if err := p.guard.RecordCall(1); err != nil {
			log.Printf("[BatchProcessor] Failed to record usage: %v", err)
		}

		ids := make([]string, 0, len(c.changes))
		for _, change := range c.changes {
			ids = append(ids, change.ID)
		}

		switch {
		case callErr != nil:
			// Transport errors and timeouts are retryable failures, never
			// treated as success
			log.Printf("[BatchProcessor] Chunk of %d (%s) failed: %v", len(ids), c.action, callErr)
			p.failChunk(ctx, ids)
			failures++
		case result.Status == syncdomain.UplinkOK:
			if err := p.queueRepo.DequeueSuccess(ids); err != nil {
				p.tracker.Finish(ctx, run, syncdomain.RunStatusFailed)
				return fmt.Errorf("failed to dequeue %d uplinked changes: %w", len(ids), err)
			}
			run.ItemsProcessed += len(ids)
		case result.Status == syncdomain.UplinkRateLimited:
			// Deferral: no attempt penalty for the remaining rows, and no
			// further remote calls this run
			p.deferUntil = p.now().Add(result.RetryAfter)
			log.Printf("[BatchProcessor] Rate limited (retry after %s), ending run", result.RetryAfter)
			deferred = true
		default:
			log.Printf("[BatchProcessor] Chunk of %d (%s) rejected with HTTP %d", len(ids), c.action, result.HTTPStatus)
			p.failChunk(ctx, ids)
			failures++
		}

		if run.ItemsTotal > 0 {
			run.ProgressPercent = run.ItemsProcessed * 100 / run.ItemsTotal
		}
		p.tracker.Update(ctx, run)
	}

	status := syncdomain.RunStatusCompleted
	if deferred || failures > 0 || run.ItemsProcessed < run.ItemsTotal {
		status = syncdomain.RunStatusPartial
	}
	p.tracker.Finish(ctx, run, status)
	return nil
}

// shouldProcess is the dual trigger condition: proceed when retries are
// owed, the queue is big enough, or the oldest intent is getting stale.
// A purely count-based trigger would starve users who make few changes.
func (p *BatchProcessor) shouldProcess(eligible []syncdomain.PendingChange, now time.Time) bool {
	if len(eligible) == 0 {
		return false
	}
	for _, change := range eligible {
		if change.AttemptCount > 0 {
			return true
		}
	}
	if len(eligible) >= p.cfg.MinBatchSize {
		return true
	}
	// ListPending returns oldest-first
	return now.Sub(eligible[0].CreatedAt) > p.cfg.MaxStaleness
}

// buildChunks groups rows by action kind (kinds ordered by first occurrence
// in the queue) and splits each group at the remote per-call limit. A
// configured size outside the remote's hard limit is clamped, not passed
// through.
func buildChunks(changes []syncdomain.PendingChange, size int) []chunk {
	if size <= 0 || size > syncdomain.MaxChunkSize {
		size = syncdomain.MaxChunkSize
	}

	var order []syncdomain.ActionKind
	groups := make(map[syncdomain.ActionKind][]syncdomain.PendingChange)
	for _, change := range changes {
		if _, seen := groups[change.ActionKind]; !seen {
			order = append(order, change.ActionKind)
		}
		groups[change.ActionKind] = append(groups[change.ActionKind], change)
	}

	var chunks []chunk
	for _, action := range order {
		group := groups[action]
		for start := 0; start < len(group); start += size {
			end := start + size
			if end > len(group) {
				end = len(group)
			}
			chunks = append(chunks, chunk{action: action, changes: group[start:end]})
		}
	}
	return chunks
}

func (p *BatchProcessor) uplinkChunk(ctx context.Context, account *syncdomain.RemoteAccount, c chunk) (syncdomain.UplinkResult, error) {
	remoteIDs := make([]string, 0, len(c.changes))
	for _, change := range c.changes {
		remoteIDs = append(remoteIDs, change.RemoteArticleID)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	return p.reader.ApplyBatch(callCtx, account.AccessToken, account.RefreshToken, c.action, remoteIDs, p.makeTokenUpdateCallback(account))
}

// makeTokenUpdateCallback persists refreshed OAuth tokens so the next run
// starts from the fresh pair
func (p *BatchProcessor) makeTokenUpdateCallback(account *syncdomain.RemoteAccount) syncdomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		account.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			account.RefreshToken = token.RefreshToken
		}
		account.TokenExpiry = token.Expiry
		return p.accountRepo.Save(account)
	}
}

// failChunk records a failed attempt and alerts the operator about rows
// that just exhausted their attempts
func (p *BatchProcessor) failChunk(ctx context.Context, ids []string) {
	newlyStuck, err := p.queueRepo.DequeueFailure(ids, p.now())
	if err != nil {
		log.Printf("[BatchProcessor] Failed to record attempt for %d changes: %v", len(ids), err)
		return
	}
	if len(newlyStuck) > 0 {
		log.Printf("[BatchProcessor] %d changes stuck after %d attempts, operator intervention required", len(newlyStuck), syncdomain.MaxAttempts)
		go p.alertStuck(len(newlyStuck))
	}
}

// alertStuck pushes an FCM alert to the operator's devices. Best-effort:
// the rows stay flagged in the queue either way.
func (p *BatchProcessor) alertStuck(count int) {
	if p.fcmClient == nil || p.tokenRepo == nil {
		return
	}

	tokens, err := p.tokenRepo.GetTokens()
	if err != nil {
		log.Printf("[BatchProcessor] Failed to load device tokens for stuck alert: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failedTokens, err := p.fcmClient.SendToDevices(context.Background(), tokenStrings, fcm.Alert{
		Title: "Sync queue needs attention",
		Body:  fmt.Sprintf("%d changes failed %d times and are stuck", count, syncdomain.MaxAttempts),
		Data: map[string]string{
			"type":         "stuck_changes",
			"click_action": "/sync/queue",
		},
	})
	if err != nil {
		log.Printf("[BatchProcessor] Failed to send stuck alert: %v", err)
		return
	}
	for _, token := range failedTokens {
		p.tokenRepo.DeleteToken(token)
	}
}
