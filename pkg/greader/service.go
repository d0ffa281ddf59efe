package greader

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = syncdomain.TokenUpdateFunc

// Google-Reader-compatible state tags
const (
	TagRead    = "user/-/state/com.google/read"
	TagStarred = "user/-/state/com.google/starred"
)

const editTagPath = "/reader/api/0/edit-tag"

// defaultRetryAfter is used when a 429 arrives without a usable hint
const defaultRetryAfter = 60 * time.Second

// Service talks to a Google-Reader-compatible API (Inoreader, FreshRSS).
// Only the bulk edit-tag endpoint is used by the sync core.
type Service struct {
	baseURL      string
	clientID     string
	clientSecret string
	timeout      time.Duration

	// overridden in tests
	httpClientFactory func(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) *http.Client
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Reader] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(baseURL, clientID, clientSecret string, timeout time.Duration) *Service {
	s := &Service{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		timeout:      timeout,
	}
	s.httpClientFactory = s.newOAuthClient
	return s
}

// newOAuthClient builds an http.Client whose token source refreshes expired
// access tokens and reports refreshes through the callback
func (s *Service) newOAuthClient(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) *http.Client {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	conf := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.baseURL + "/oauth2/auth",
			TokenURL: s.baseURL + "/oauth2/token",
		},
	}

	wrappedSource := &notifyTokenSource{
		src:      conf.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)
	client.Timeout = s.timeout
	return client
}

// ApplyBatch sends one bulk edit-tag call for up to MaxChunkSize items.
// The response collapses to the three-way contract the batch processor
// understands: ok, retryable, or rate-limited with a retry hint.
func (s *Service) ApplyBatch(ctx context.Context, accessToken, refreshToken string, action syncdomain.ActionKind, remoteIDs []string, onTokenRefresh TokenUpdateFunc) (syncdomain.UplinkResult, error) {
	if len(remoteIDs) == 0 {
		return syncdomain.UplinkResult{Status: syncdomain.UplinkOK}, nil
	}
	if len(remoteIDs) > syncdomain.MaxChunkSize {
		return syncdomain.UplinkResult{}, fmt.Errorf("batch of %d exceeds remote limit of %d", len(remoteIDs), syncdomain.MaxChunkSize)
	}

	form := url.Values{}
	for _, id := range remoteIDs {
		form.Add("i", id)
	}
	switch action {
	case syncdomain.ActionMarkRead:
		form.Set("a", TagRead)
	case syncdomain.ActionMarkUnread:
		form.Set("r", TagRead)
	case syncdomain.ActionStar:
		form.Set("a", TagStarred)
	case syncdomain.ActionUnstar:
		form.Set("r", TagStarred)
	default:
		return syncdomain.UplinkResult{}, fmt.Errorf("unsupported action kind: %s", action)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+editTagPath, strings.NewReader(form.Encode()))
	if err != nil {
		return syncdomain.UplinkResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := s.httpClientFactory(ctx, accessToken, refreshToken, onTokenRefresh)
	resp, err := client.Do(req)
	if err != nil {
		// Network errors and timeouts are the caller's retryable case
		return syncdomain.UplinkResult{}, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return syncdomain.UplinkResult{Status: syncdomain.UplinkOK, HTTPStatus: resp.StatusCode}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return syncdomain.UplinkResult{
			Status:     syncdomain.UplinkRateLimited,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			HTTPStatus: resp.StatusCode,
		}, nil
	default:
		log.Printf("[Reader] edit-tag returned %d for %d items (%s)", resp.StatusCode, len(remoteIDs), action)
		return syncdomain.UplinkResult{Status: syncdomain.UplinkRetryable, HTTPStatus: resp.StatusCode}, nil
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	// HTTP-date form
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return defaultRetryAfter
}
