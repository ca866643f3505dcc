package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Recorder = (*NoopRecorder)(nil)
	_ Recorder = (*InMemoryRecorder)(nil)
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestInMemoryRecorder_Counts(t *testing.T) {
	m := NewInMemory()

	m.IncRecipeCreated()
	m.IncRecipeCreated()
	m.IncRecipeUpdated()
	m.IncRecipeDeleted()
	m.IncUserRegistered()
	m.IncTokenIssued()
	m.IncTokenRevoked()
	m.IncAuthResult(AuthSuccess)
	m.IncAuthResult(AuthFailure)
	m.IncAuthResult(AuthFailure)
	m.IncAuthCacheHit()
	m.IncAuthCacheMiss()
	m.IncRateLimited(ScopeAPI)
	m.IncRateLimited(ScopeLogin)
	m.ObserveRequest("GET", "/api/recipes", 200, 3*time.Millisecond)

	got := m.Snapshot()
	want := Snapshot{
		RecipesCreated:    2,
		RecipesUpdated:    1,
		RecipesDeleted:    1,
		UsersRegistered:   1,
		TokensIssued:      1,
		TokensRevoked:     1,
		AuthSuccesses:     1,
		AuthFailures:      2,
		AuthCacheHits:     1,
		AuthCacheMisses:   1,
		RateLimitedAPI:    1,
		RateLimitedLogin:  1,
		Requests:          1,
		RequestDurationNs: (3 * time.Millisecond).Nanoseconds(),
	}
	assert.Equal(t, want, got)
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	p := NewPrometheus()

	p.IncRecipeCreated()
	p.IncRecipeCreated()
	p.IncAuthResult(AuthFailure)
	p.IncRateLimited(ScopeLogin)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.recipes.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.authResults.WithLabelValues(AuthFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.rateLimited.WithLabelValues(ScopeLogin)))
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	p := NewPrometheus()
	p.IncUserRegistered()
	p.ObserveRequest(http.MethodGet, "/api/recipes/{id}", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "recipeapi_users_registered_total 1"), "missing users counter")
	assert.True(t, strings.Contains(text, `route="/api/recipes/{id}"`), "missing route label")
	assert.True(t, strings.Contains(text, "go_goroutines"), "missing runtime collector")
}
