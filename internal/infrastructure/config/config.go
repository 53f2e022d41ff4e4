// Package config loads the process-wide configuration from environment
// variables. The result is read-only after startup and passed explicitly to
// the components that need it.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT     JWTConfig
	Storage StorageConfig
}

type JWTConfig struct {
	Secret   string        `env:"JWT_SECRET"`
	Issuer   string        `env:"JWT_ISSUER,   default=user-management-api"`
	Audience string        `env:"JWT_AUDIENCE, default=user-management-clients"`
	TTL      time.Duration `env:"JWT_TTL,      default=30m"`
}

type StorageConfig struct {
	Backend string `env:"STORE_BACKEND, default=postgres"`

	PostgresURL string `env:"POSTGRES_URL"`

	MongoURI string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB,  default=user_management"`

	// Bounded retry for transient connectivity faults only; business-rule
	// rejections are never retried.
	RetryAttempts int           `env:"STORE_RETRY_ATTEMPTS, default=3"`
	RetryBackoff  time.Duration `env:"STORE_RETRY_BACKOFF,  default=2s"`
}

// Load reads configuration from the environment and validates it. A missing
// signing key or connection string is fatal: the caller must not begin
// serving.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the startup invariants.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET is required")
	}

	switch c.Storage.Backend {
	case BackendPostgres:
		if c.Storage.PostgresURL == "" {
			return errors.New("config: POSTGRES_URL is required when STORE_BACKEND=postgres")
		}
	case BackendMongo:
		if c.Storage.MongoURI == "" || c.Storage.MongoDB == "" {
			return errors.New("config: MONGO_URI and MONGO_DB are required when STORE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Storage.Backend)
	}

	if c.Storage.RetryAttempts < 1 {
		return errors.New("config: STORE_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
// (pretty logs, swagger UI exposed).
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
