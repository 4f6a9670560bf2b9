// Command seeduser creates a user account out-of-band. The auth service
// itself never registers users; operators run this against the same MongoDB
// instance to provision accounts.
//
//	JWT_SECRET=x seeduser -username alice -email alice@example.com -password s3cretpw1
package main

import (
	"context"
	"flag"
	"time"

	"github.com/taskhub/task-tracker/internal/core/domain"
	"github.com/taskhub/task-tracker/internal/core/password"
	"github.com/taskhub/task-tracker/internal/infrastructure/config"
	mongodb "github.com/taskhub/task-tracker/internal/infrastructure/db/mongo"
	"github.com/taskhub/task-tracker/pkg/logger"
)

func main() {
	var (
		username = flag.String("username", "", "username (required)")
		email    = flag.String("email", "", "email address")
		pw       = flag.String("password", "", "plaintext password (required, min 8 chars)")
		inactive = flag.Bool("inactive", false, "create the account deactivated")
	)
	flag.Parse()

	log := logger.Init(logger.Options{Pretty: true})

	if *username == "" || *pw == "" {
		log.Fatal().Msg("both -username and -password are required")
	}
	if len(*pw) < password.MinPasswordLength {
		log.Fatal().Int("min", password.MinPasswordLength).Msg("password too short")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = client.Disconnect(ctx) }()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure user indexes")
	}

	hash, err := password.NewHasher(cfg.Auth.BcryptCost).Hash(*pw)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash password")
	}

	created, err := users.Create(ctx, &domain.User{
		Username:     *username,
		Email:        *email,
		PasswordHash: hash,
		IsActive:     !*inactive,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("failed to create user")
	}

	log.Info().
		Int64("id", created.ID).
		Str("username", created.Username).
		Bool("is_active", created.IsActive).
		Msg("user created")
}
