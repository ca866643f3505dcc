// Package main is the entrypoint for the recipe API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/recipeapi/recipeapi/internal/auth"
	"github.com/recipeapi/recipeapi/internal/cache"
	"github.com/recipeapi/recipeapi/internal/config"
	"github.com/recipeapi/recipeapi/internal/handler"
	"github.com/recipeapi/recipeapi/internal/metrics"
	"github.com/recipeapi/recipeapi/internal/middleware"
	"github.com/recipeapi/recipeapi/internal/repository"
	"github.com/recipeapi/recipeapi/internal/server"
	"github.com/recipeapi/recipeapi/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		status, err := repository.MigrateUp(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("migrations applied", "version", status.Version, "dirty", status.Dirty)
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	prom := metrics.NewPrometheus()
	hasher := auth.NewHasher(auth.DefaultParams)

	recipes := service.NewRecipeService(repo, prom)
	users := service.NewUserService(repo, repo, cacheClient, hasher, prom, logger)
	tokens := service.NewTokenService(repo, repo, cacheClient, hasher, service.TokenConfig{
		Env: cfg.TokenEnv,
		TTL: cfg.TokenTTL,
	}, prom, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		Recipes:        recipes,
		Users:          users,
		Tokens:         tokens,
		Health:         handler.NewHealthHandler(repo, cacheClient),
		Metrics:        prom,
		MetricsHandler: prom.Handler(),

		AuthMinDuration: cfg.AuthMinDuration,
		RateLimit: middleware.RateLimitConfig{
			Limiter:      cacheClient,
			APIEnabled:   cfg.RateLimitAPIEnabled,
			APIRPM:       cfg.RateLimitAPIRPM,
			APIBurst:     cfg.RateLimitAPIBurst,
			LoginEnabled: cfg.RateLimitLoginEnabled,
			LoginRPS:     cfg.RateLimitLoginRPS,
			LoginBurst:   cfg.RateLimitLoginBurst,
		},
		CORS:        corsCfg,
		Security:    middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})
	// Registered last so it runs first: pending last-used writes need the
	// database.
	srv.OnShutdown("token-touch", func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			tokens.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"token_env", cfg.TokenEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "recipeapi")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
