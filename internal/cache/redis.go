// Package cache holds the site's Redis connection.
//
// One client serves four consumers: intake lookups behind the customer
// dashboard and portal, the per-IP signup token bucket, the intake event
// stream and the webhook notifier reading that stream.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool sizing for a single site process.
const (
	poolSize        = 10
	minIdleConns    = 2
	poolTimeout     = 4 * time.Second
	connMaxIdleTime = 5 * time.Minute
)

// Cache is the shared Redis handle for intakes, signup limits and events.
type Cache struct {
	client *redis.Client
}

// New dials the Redis at redisURL and pings it before returning.
// The serve command aborts startup on error.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	sizePool(opt)

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

func sizePool(opt *redis.Options) {
	opt.PoolSize = poolSize
	opt.MinIdleConns = minIdleConns
	opt.PoolTimeout = poolTimeout
	opt.ConnMaxIdleTime = connMaxIdleTime
}

// Ping backs the redis entry of /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close is registered as the redis shutdown hook.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the connection to the intake event publisher and the notifier.
func (c *Cache) Client() *redis.Client {
	return c.client
}
