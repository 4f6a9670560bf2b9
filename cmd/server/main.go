package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskhub/task-tracker/internal/api"
	"github.com/taskhub/task-tracker/internal/api/handler"
	"github.com/taskhub/task-tracker/internal/core/password"
	"github.com/taskhub/task-tracker/internal/core/ports"
	"github.com/taskhub/task-tracker/internal/core/service"
	"github.com/taskhub/task-tracker/internal/core/token"
	"github.com/taskhub/task-tracker/internal/infrastructure/config"
	mongodb "github.com/taskhub/task-tracker/internal/infrastructure/db/mongo"
	redisdb "github.com/taskhub/task-tracker/internal/infrastructure/db/redis"
	"github.com/taskhub/task-tracker/internal/infrastructure/registry"
	"github.com/taskhub/task-tracker/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init(logger.Options{})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting auth service")

	// --- Credential store ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure user indexes")
	}

	// --- Revocation registry ---
	var (
		revocations ports.RevocationRegistry
		rdb         *redis.Client
	)
	switch cfg.Auth.RegistryBackend {
	case "memory":
		log.Warn().Msg("using in-memory revocation registry; sessions will not survive a restart")
		mem := registry.NewMemory()
		go sweepLoop(ctx, mem, log)
		revocations = mem
	default:
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer func() { _ = rdb.Close() }()
		revocations = redisdb.NewRevocationRegistry(rdb)
	}

	// --- Token and password plumbing ---
	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer misconfigured")
	}
	validator, err := token.NewValidator(cfg.Auth.JWTSecret, revocations)
	if err != nil {
		log.Fatal().Err(err).Msg("token validator misconfigured")
	}

	pool := password.NewPool(password.NewHasher(cfg.Auth.BcryptCost), cfg.Auth.HashWorkers, log)
	pool.Start(ctx)

	authService := service.NewAuthService(users, revocations, issuer, validator, pool, log)

	// --- HTTP ---
	e := api.NewRouter(authService, handler.CookieOptions{
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		Secure:     cfg.Auth.CookieSecure,
	}, db, rdb, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
		os.Exit(1)
	}
}

// sweepLoop periodically prunes expired entries from the in-memory registry.
// The redis backend expires entries by TTL and needs no sweeper.
func sweepLoop(ctx context.Context, mem *registry.Memory, log zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, _ := mem.SweepExpired(ctx, time.Now().UTC())
			if removed > 0 {
				log.Debug().Int("removed", removed).Msg("swept expired revocation entries")
			}
		}
	}
}
