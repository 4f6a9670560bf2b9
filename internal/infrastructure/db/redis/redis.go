package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	defaultAddr    = "localhost:6379"
)

// Config captures the settings for the Redis connection behind the
// revocation registry.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect initialises the Redis client the revocation registry runs on and
// validates connectivity with a ping. Address and timeout fall back to
// defaults when unset.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
