package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipeapi/recipeapi/internal/handler/dto"
	"github.com/recipeapi/recipeapi/internal/metrics"
	"github.com/recipeapi/recipeapi/internal/middleware"
	"github.com/recipeapi/recipeapi/internal/service"
	"github.com/recipeapi/recipeapi/internal/testutil"
)

const testPassword = "testpass123"

// testAPI is the full router over in-memory stores.
type testAPI struct {
	t       *testing.T
	router  http.Handler
	store   *testutil.MemoryStore
	cache   *testutil.MemoryIdentityCache
	metrics *metrics.InMemoryRecorder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := testutil.NewMemoryStore()
	idCache := testutil.NewMemoryIdentityCache()
	rec := metrics.NewInMemory()
	hasher := testutil.FastHasher()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens := service.NewTokenService(store, store, idCache, hasher, service.TokenConfig{Env: "test"}, rec, logger)
	t.Cleanup(tokens.Wait)

	router := NewRouter(RouterConfig{
		Logger:         logger,
		Recipes:        service.NewRecipeService(store, rec),
		Users:          service.NewUserService(store, store, idCache, hasher, rec, logger),
		Tokens:         tokens,
		Metrics:        rec,
		MetricsHandler: promhttp.Handler(),
		Security:       middleware.SecurityConfig{IsDevelopment: true},
	})

	return &testAPI{t: t, router: router, store: store, cache: idCache, metrics: rec}
}

// do sends a request. body may be nil, a raw string or any value to be
// encoded as JSON.
func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// login registers email and returns a fresh token for it.
func (a *testAPI) login(email string) string {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/users", "", map[string]string{
		"email": email, "password": testPassword, "name": "Test Name",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/users/token", "", map[string]string{
		"email": email, "password": testPassword,
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var tok dto.TokenResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(a.t, tok.Token)
	return tok.Token
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = api.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouter_Fallbacks(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeJSON[dto.ErrorResponse](t, rec).Error.Code)

	rec = api.do(http.MethodGet, "/api/users/token", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_BodyTooLarge(t *testing.T) {
	api := newTestAPI(t)

	huge := `{"email":"` + strings.Repeat("a", int(2<<20)) + `@example.com"}`
	rec := api.do(http.MethodPost, "/api/users", "", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, api.store.UserCount())
}
