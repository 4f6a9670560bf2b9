package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultDatabase = "task_tracker"
)

// Config captures the settings for the MongoDB connection backing the
// credential store.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes the MongoDB client the user repository runs on,
// verifies connectivity with a ping, and returns both the client and the
// selected database. Timeout and database name fall back to defaults when
// unset.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}
