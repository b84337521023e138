// Package cache opens the Redis client that lmsctl uses when
// LMS_SESSION_STORE=redis, so several shells share one signed-in session.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-lms/internal/platform/config"
)

const (
	dialTimeout  = 5 * time.Second
	ioTimeout    = 3 * time.Second
	probeTimeout = 3 * time.Second
)

// Cache holds the session Redis client. Client is exported for
// session.NewRedisStore.
type Cache struct {
	Client *redis.Client
}

// ParseURL checks an LMS_CACHE_URL value (redis:// or rediss://).
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("session cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse session cache URL: %w", err)
	}
	return opts, nil
}

// Options applies the dial and I/O timeouts to the parsed URL.
func Options(c config.CacheConfig) (*redis.Options, error) {
	opts, err := ParseURL(c.URL)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout
	return opts, nil
}

// Open connects and pings.
func Open(ctx context.Context, c config.CacheConfig) (*Cache, error) {
	opts, err := Options(c)
	if err != nil {
		return nil, err
	}

	cc := &Cache{Client: redis.NewClient(opts)}
	if err := cc.HealthCheck(ctx); err != nil {
		_ = cc.Client.Close()
		return nil, err
	}
	slog.Debug("session cache connected", "addr", opts.Addr, "db", opts.DB)
	return cc, nil
}

// Close closes the client.
func (c *Cache) Close() error {
	if err := c.Client.Close(); err != nil {
		return fmt.Errorf("close session cache: %w", err)
	}
	return nil
}

// HealthCheck pings within probeTimeout.
func (c *Cache) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping session cache: %w", err)
	}
	return nil
}
