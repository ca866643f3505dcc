package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/recipeapi/recipeapi/internal/auth"
	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/recipeapi/recipeapi/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema rolls every migration back and applies them again, leaving
// empty tables.
func ResetSchema(databaseURL string) error {
	if _, err := repository.MigrateDown(databaseURL, 0); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	if _, err := repository.MigrateUp(databaseURL); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// FastHasherParams are cheap Argon2id parameters for tests.
var FastHasherParams = auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// FastHasher returns a Hasher using FastHasherParams.
func FastHasher() *auth.Hasher {
	return auth.NewHasher(FastHasherParams)
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Uint64

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@example.com", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUser creates an active test user. PasswordHash is a placeholder;
// hash a real password when the test authenticates.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Email:        UniqueEmail("user"),
		Name:         "Test User",
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestRecipe creates a test recipe owned by userID with the default
// sample values.
func NewTestRecipe(t testing.TB, userID string) *model.Recipe {
	t.Helper()
	return &model.Recipe{
		UserID:      userID,
		Title:       "Sample recipe title",
		TimeMinutes: 22,
		Price:       decimal.RequireFromString("5.25"),
		Description: "Sample description",
		Link:        "http://example.com/recipe.pdf",
	}
}

// NewTestToken creates an unexpired test token for userID.
func NewTestToken(t testing.TB, userID, prefix string) *model.Token {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	expires := now.Add(time.Hour)
	return &model.Token{
		ID:          ulid.Make().String(),
		UserID:      userID,
		TokenHash:   fmt.Sprintf("hash-%d", seq.Add(1)),
		TokenPrefix: prefix,
		ExpiresAt:   &expires,
		CreatedAt:   now,
	}
}
