package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RecipesCreated    uint64
	RecipesUpdated    uint64
	RecipesDeleted    uint64
	UsersRegistered   uint64
	TokensIssued      uint64
	TokensRevoked     uint64
	AuthSuccesses     uint64
	AuthFailures      uint64
	AuthCacheHits     uint64
	AuthCacheMisses   uint64
	RateLimitedAPI    uint64
	RateLimitedLogin  uint64
	Requests          uint64
	RequestDurationNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	recipesCreated    uint64
	recipesUpdated    uint64
	recipesDeleted    uint64
	usersRegistered   uint64
	tokensIssued      uint64
	tokensRevoked     uint64
	authSuccesses     uint64
	authFailures      uint64
	authCacheHits     uint64
	authCacheMisses   uint64
	rateLimitedAPI    uint64
	rateLimitedLogin  uint64
	requests          uint64
	requestDurationNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		RecipesCreated:    atomic.LoadUint64(&m.recipesCreated),
		RecipesUpdated:    atomic.LoadUint64(&m.recipesUpdated),
		RecipesDeleted:    atomic.LoadUint64(&m.recipesDeleted),
		UsersRegistered:   atomic.LoadUint64(&m.usersRegistered),
		TokensIssued:      atomic.LoadUint64(&m.tokensIssued),
		TokensRevoked:     atomic.LoadUint64(&m.tokensRevoked),
		AuthSuccesses:     atomic.LoadUint64(&m.authSuccesses),
		AuthFailures:      atomic.LoadUint64(&m.authFailures),
		AuthCacheHits:     atomic.LoadUint64(&m.authCacheHits),
		AuthCacheMisses:   atomic.LoadUint64(&m.authCacheMisses),
		RateLimitedAPI:    atomic.LoadUint64(&m.rateLimitedAPI),
		RateLimitedLogin:  atomic.LoadUint64(&m.rateLimitedLogin),
		Requests:          atomic.LoadUint64(&m.requests),
		RequestDurationNs: atomic.LoadInt64(&m.requestDurationNs),
	}
}

// IncRecipeCreated increments recipe created counter.
func (m *InMemoryRecorder) IncRecipeCreated() {
	atomic.AddUint64(&m.recipesCreated, 1)
}

// IncRecipeUpdated increments recipe updated counter.
func (m *InMemoryRecorder) IncRecipeUpdated() {
	atomic.AddUint64(&m.recipesUpdated, 1)
}

// IncRecipeDeleted increments recipe deleted counter.
func (m *InMemoryRecorder) IncRecipeDeleted() {
	atomic.AddUint64(&m.recipesDeleted, 1)
}

// IncUserRegistered increments user registered counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncTokenIssued increments token issued counter.
func (m *InMemoryRecorder) IncTokenIssued() {
	atomic.AddUint64(&m.tokensIssued, 1)
}

// IncTokenRevoked increments token revoked counter.
func (m *InMemoryRecorder) IncTokenRevoked() {
	atomic.AddUint64(&m.tokensRevoked, 1)
}

// IncAuthResult counts an authentication attempt by result.
func (m *InMemoryRecorder) IncAuthResult(result string) {
	if result == AuthSuccess {
		atomic.AddUint64(&m.authSuccesses, 1)
		return
	}
	atomic.AddUint64(&m.authFailures, 1)
}

// IncAuthCacheHit increments identity cache hit counter.
func (m *InMemoryRecorder) IncAuthCacheHit() {
	atomic.AddUint64(&m.authCacheHits, 1)
}

// IncAuthCacheMiss increments identity cache miss counter.
func (m *InMemoryRecorder) IncAuthCacheMiss() {
	atomic.AddUint64(&m.authCacheMisses, 1)
}

// IncRateLimited counts a rejected request by scope.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	if scope == ScopeLogin {
		atomic.AddUint64(&m.rateLimitedLogin, 1)
		return
	}
	atomic.AddUint64(&m.rateLimitedAPI, 1)
}

// ObserveRequest records a served HTTP request.
func (m *InMemoryRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.requests, 1)
	atomic.AddInt64(&m.requestDurationNs, duration.Nanoseconds())
}
