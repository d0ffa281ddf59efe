package domain

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc is a callback function that persists refreshed OAuth tokens
type TokenUpdateFunc func(token *oauth2.Token) error

// UplinkStatus is the three-way outcome of one bulk tag call
type UplinkStatus string

const (
	UplinkOK          UplinkStatus = "ok"
	UplinkRetryable   UplinkStatus = "retryable"
	UplinkRateLimited UplinkStatus = "rate_limited"
)

// UplinkResult carries the outcome of a bulk call. RetryAfter is only set
// for rate-limited responses.
type UplinkResult struct {
	Status     UplinkStatus
	RetryAfter time.Duration
	HTTPStatus int
}

// ReaderProvider is the narrow contract the batch processor depends on: one
// bulk state-change endpoint accepting an action and up to MaxChunkSize
// remote item ids. Transport details stay in pkg/greader.
type ReaderProvider interface {
	ApplyBatch(ctx context.Context, accessToken, refreshToken string, action ActionKind, remoteIDs []string, onTokenRefresh TokenUpdateFunc) (UplinkResult, error)
}

// MaxChunkSize is the remote API's hard per-call item limit
const MaxChunkSize = 100
