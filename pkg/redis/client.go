package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mreyes/confluence/pkg/config"
)

// Client wraps the Redis connection shared by the short-interest cache
// and the per-source rate limiters. Redis is optional for this service:
// with REDIS_ENABLED=false every helper built on this client degrades
// to a no-op, fetches go uncached and rate limiting falls back to the
// in-process limiter.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// connectTimeout bounds the startup ping so a missing Redis fails fast
// instead of stalling the CLI.
const connectTimeout = 5 * time.Second

// New connects to Redis, or returns a disabled client when Redis is
// turned off in config.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  connectTimeout,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{
		rdb:     rdb,
		enabled: true,
	}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled reports whether a live Redis backs this client.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis exposes the underlying client for scripts and pipelines.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
