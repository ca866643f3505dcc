package service

import (
	"context"
	"testing"

	"github.com/recipeapi/recipeapi/internal/metrics"
	"github.com/recipeapi/recipeapi/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userEnv struct {
	users   *UserService
	tokens  *TokenService
	store   *testutil.MemoryStore
	cache   *testutil.MemoryIdentityCache
	metrics *metrics.InMemoryRecorder
}

func newUserEnv(t *testing.T) *userEnv {
	t.Helper()

	store := testutil.NewMemoryStore()
	idCache := testutil.NewMemoryIdentityCache()
	rec := metrics.NewInMemory()
	hasher := testutil.FastHasher()

	tokens := NewTokenService(store, store, idCache, hasher, TokenConfig{Env: "test"}, rec, nil)
	t.Cleanup(tokens.Wait)

	return &userEnv{
		users:   NewUserService(store, store, idCache, hasher, rec, nil),
		tokens:  tokens,
		store:   store,
		cache:   idCache,
		metrics: rec,
	}
}

func registerInput(email, password, name string) RegisterInput {
	return RegisterInput{Email: strPtr(email), Password: strPtr(password), Name: strPtr(name)}
}

func TestUserService_Register(t *testing.T) {
	env := newUserEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, registerInput("Test@EXAMPLE.com", "testpass123", "  Test Name "))
	require.NoError(t, err)

	assert.Equal(t, "Test@example.com", user.Email)
	assert.Equal(t, "Test Name", user.Name)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "testpass123", user.PasswordHash)

	ok, err := testutil.FastHasher().Verify("testpass123", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok, "stored hash should verify the password")

	assert.Equal(t, uint64(1), env.metrics.Snapshot().UsersRegistered)
}

func TestUserService_RegisterShortPasswordNotPersisted(t *testing.T) {
	env := newUserEnv(t)

	_, err := env.users.Register(context.Background(), registerInput("test@example.com", "pw", "Test"))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"Ensure this field has at least 5 characters."}, ve.Fields["password"])
	assert.Zero(t, env.store.UserCount())
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	env := newUserEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, registerInput("test@example.com", "testpass123", "First"))
	require.NoError(t, err)

	// Domain case differences normalize to the same address.
	_, err = env.users.Register(ctx, registerInput("test@EXAMPLE.COM", "otherpass", "Second"))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{MsgEmailExists}, ve.Fields["email"])
	assert.Equal(t, 1, env.store.UserCount())
}

func TestUserService_RegisterMissingFields(t *testing.T) {
	env := newUserEnv(t)

	_, err := env.users.Register(context.Background(), RegisterInput{Name: strPtr("")})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{MsgRequired}, ve.Fields["email"])
	assert.Equal(t, []string{MsgRequired}, ve.Fields["password"])
	assert.Equal(t, []string{MsgBlank}, ve.Fields["name"])
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newUserEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, registerInput("cook@example.com", "oldpass", "Cook"))
	require.NoError(t, err)
	oldHash := user.PasswordHash

	updated, err := env.users.UpdateProfile(ctx, user.ID, ProfileUpdate{
		Name:     strPtr("Head Cook"),
		Password: strPtr("newpass123"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Head Cook", updated.Name)
	assert.Equal(t, "cook@example.com", updated.Email)
	assert.NotEqual(t, oldHash, updated.PasswordHash)

	// The new password works for the token exchange, the old one does not.
	_, err = env.tokens.Issue(ctx, Credentials{Email: strPtr("cook@example.com"), Password: strPtr("newpass123")})
	require.NoError(t, err)
	_, err = env.tokens.Issue(ctx, Credentials{Email: strPtr("cook@example.com"), Password: strPtr("oldpass")})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestUserService_UpdateProfileValidation(t *testing.T) {
	env := newUserEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, registerInput("taken@example.com", "testpass", "Taken"))
	require.NoError(t, err)
	user, err := env.users.Register(ctx, registerInput("me@example.com", "testpass", "Me"))
	require.NoError(t, err)

	_, err = env.users.UpdateProfile(ctx, user.ID, ProfileUpdate{Email: strPtr("taken@example.com")})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{MsgEmailExists}, ve.Fields["email"])

	_, err = env.users.UpdateProfile(ctx, user.ID, ProfileUpdate{Password: strPtr("abc")})
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Fields["password"])

	got, err := env.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", got.Email)
}

func TestUserService_DeactivateRevokesTokens(t *testing.T) {
	env := newUserEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, registerInput("cook@example.com", "testpass", "Cook"))
	require.NoError(t, err)

	issued, err := env.tokens.Issue(ctx, Credentials{Email: strPtr("cook@example.com"), Password: strPtr("testpass")})
	require.NoError(t, err)
	_, err = env.tokens.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
	require.Equal(t, 1, env.cache.Len())

	user, err := env.users.SetActive(ctx, "cook@example.com", false)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Zero(t, env.cache.Len(), "cached identities must be dropped")

	_, err = env.tokens.Authenticate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.tokens.Issue(ctx, Credentials{Email: strPtr("cook@example.com"), Password: strPtr("testpass")})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, MsgInvalidCredentials, ve.Message)

	_, err = env.users.SetActive(ctx, "nobody@example.com", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
