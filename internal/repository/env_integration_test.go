//go:build integration

package repository_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/recipeapi/recipeapi/internal/repository"
	"github.com/recipeapi/recipeapi/internal/testutil"
)

// newRepoTestEnv returns a repository over freshly migrated, empty tables.
// Tests holding the advisory lock run one at a time.
func newRepoTestEnv(t *testing.T) (context.Context, *repository.Repository) {
	t.Helper()
	ctx, _, dbURL := lockDB(t)

	if err := testutil.ResetSchema(dbURL); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect repository: %v", err)
	}
	t.Cleanup(repo.Close)

	return ctx, repo
}

func lockDB(t *testing.T) (context.Context, *pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	return ctx, pool, dbURL
}

func mustCreateUser(ctx context.Context, t *testing.T, repo *repository.Repository) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}
