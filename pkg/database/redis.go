package database

import (
	"context"

	"feedbox-backend/pkg/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects the fast ephemeral store used by the progress
// tracker. REDIS_URL is parsed as a URL with a plain host:port fallback.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		opt = &redis.Options{Addr: cfg.RedisURL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
