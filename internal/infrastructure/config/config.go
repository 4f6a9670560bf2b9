package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type AuthConfig struct {
	// JWTSecret signs every issued token; the process refuses to start
	// without one.
	JWTSecret       string        `env:"JWT_SECRET, required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	BcryptCost      int           `env:"BCRYPT_COST,  default=12"`
	HashWorkers     int           `env:"HASH_WORKERS, default=4"`
	// CookieSecure marks auth cookies Secure; enable behind HTTPS.
	CookieSecure bool `env:"COOKIE_SECURE, default=false"`
	// RegistryBackend selects the revocation registry: redis or memory.
	// The in-memory backend is for local development only.
	RegistryBackend string `env:"REGISTRY_BACKEND, default=redis"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=task_tracker"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
