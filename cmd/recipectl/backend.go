package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/recipeapi/recipeapi/internal/auth"
	"github.com/recipeapi/recipeapi/internal/cache"
	"github.com/recipeapi/recipeapi/internal/metrics"
	"github.com/recipeapi/recipeapi/internal/repository"
	"github.com/recipeapi/recipeapi/internal/service"
)

// services are the account services a command runs against.
type services struct {
	users  *service.UserService
	tokens *service.TokenService
	close  func()
}

// storeOptions select the backing stores and token settings.
type storeOptions struct {
	DatabaseURL string
	RedisURL    string
	Token       service.TokenConfig
}

// backend opens stores and runs migrations. Tests replace it with
// in-memory fakes.
type backend struct {
	open          func(ctx context.Context, opts storeOptions) (*services, error)
	migrateUp     func(databaseURL string) (*repository.MigrationStatus, error)
	migrateDown   func(databaseURL string, steps int) (*repository.MigrationStatus, error)
	migrateStatus func(databaseURL string) (*repository.MigrationStatus, error)
}

func defaultBackend() backend {
	return backend{
		open:          openServices,
		migrateUp:     repository.MigrateUp,
		migrateDown:   repository.MigrateDown,
		migrateStatus: repository.MigrationVersion,
	}
}

func openServices(ctx context.Context, opts storeOptions) (*services, error) {
	repo, err := repository.New(ctx, opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	closers := []func(){repo.Close}

	// Without Redis, cached identities of a deactivated user expire on
	// their own TTL instead of being dropped immediately.
	var idCache service.IdentityCache
	if opts.RedisURL != "" {
		c, err := cache.New(ctx, opts.RedisURL)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		idCache = c
		closers = append(closers, func() { _ = c.Close() })
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	hasher := auth.NewHasher(auth.DefaultParams)
	rec := metrics.NewNoop()

	tokens := service.NewTokenService(repo, repo, idCache, hasher, opts.Token, rec, logger)

	return &services{
		users:  service.NewUserService(repo, repo, idCache, hasher, rec, logger),
		tokens: tokens,
		close: func() {
			tokens.Wait()
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func printStatus(w io.Writer, action string, s *repository.MigrationStatus) {
	state := "clean"
	if s.Dirty {
		state = "dirty"
	}
	if !s.Changed && action != "version" {
		fmt.Fprintf(w, "%s: no change, version %d (%s)\n", action, s.Version, state)
		return
	}
	fmt.Fprintf(w, "%s: version %d (%s)\n", action, s.Version, state)
}
