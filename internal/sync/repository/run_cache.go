package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"

	"github.com/redis/go-redis/v9"
)

const runKeyPrefix = "feedbox:sync:run:"

// defaultRunTTL bounds cache entries for runs abandoned by process
// termination; the durable store is the fallback either way
const defaultRunTTL = 24 * time.Hour

// RunCache is the fast ephemeral half of the progress tracker
type RunCache interface {
	Save(ctx context.Context, run *syncdomain.SyncRun) error
	// Find returns nil without error when the run is not cached
	Find(ctx context.Context, runID string) (*syncdomain.SyncRun, error)
	// ExpireAfter schedules delayed removal of a finished run so a client
	// polling at the moment of completion does not race into a not-found
	ExpireAfter(ctx context.Context, runID string, d time.Duration) error
}

// redisRunCache implements RunCache on Redis
type redisRunCache struct {
	client *redis.Client
}

// NewRunCache creates a new instance of redisRunCache
func NewRunCache(client *redis.Client) RunCache {
	return &redisRunCache{client: client}
}

func (c *redisRunCache) Save(ctx context.Context, run *syncdomain.SyncRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, runKeyPrefix+run.RunID, data, defaultRunTTL).Err()
}

func (c *redisRunCache) Find(ctx context.Context, runID string) (*syncdomain.SyncRun, error) {
	data, err := c.client.Get(ctx, runKeyPrefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var run syncdomain.SyncRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *redisRunCache) ExpireAfter(ctx context.Context, runID string, d time.Duration) error {
	return c.client.Expire(ctx, runKeyPrefix+runID, d).Err()
}
