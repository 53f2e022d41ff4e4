// Command server runs the user management API: registration, login, and
// token-protected user listing over HTTP.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/usermgmt/user-management-api/internal/api"
	"github.com/usermgmt/user-management-api/internal/api/handler"
	"github.com/usermgmt/user-management-api/internal/core/ports"
	"github.com/usermgmt/user-management-api/internal/core/service"
	"github.com/usermgmt/user-management-api/internal/infrastructure/config"
	mongodb "github.com/usermgmt/user-management-api/internal/infrastructure/db/mongo"
	"github.com/usermgmt/user-management-api/internal/infrastructure/db/postgres"
	"github.com/usermgmt/user-management-api/internal/infrastructure/security"
	"github.com/usermgmt/user-management-api/internal/infrastructure/token"
	"github.com/usermgmt/user-management-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Compile-time checks: both backends satisfy the store contract.
var (
	_ ports.UserRepository = (*postgres.UserRepository)(nil)
	_ ports.UserRepository = (*mongodb.UserRepository)(nil)
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
	})

	tokens, err := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token manager init failed")
	}
	hasher := security.NewBcryptHasher(0)

	var (
		repo   ports.UserRepository
		pinger handler.Pinger
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connect failed")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("postgres schema init failed")
		}
		repo = postgres.NewUserRepository(pool, cfg.Storage.RetryAttempts, cfg.Storage.RetryBackoff)
		pinger = postgres.NewHealth(pool)

	case config.BackendMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Storage.MongoURI,
			Database: cfg.Storage.MongoDB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connect failed")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		mongoRepo := mongodb.NewUserRepository(db)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("mongo index init failed")
		}
		repo = mongoRepo
		pinger = mongodb.NewHealth(client)
	}

	users := service.NewUserService(repo, hasher, tokens)

	e := api.NewRouter(api.RouterConfig{
		Users:   users,
		Tokens:  tokens,
		Log:     log,
		Pingers: []handler.Pinger{pinger},
		DevMode: cfg.IsDevelopment(),
	})

	log.Info().
		Str("port", cfg.Port).
		Str("backend", cfg.Storage.Backend).
		Str("issuer", cfg.JWT.Issuer).
		Str("audience", cfg.JWT.Audience).
		Msg("starting server")

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
