// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Auth result labels.
const (
	AuthSuccess = "success"
	AuthFailure = "failure"
)

// Rate limit scope labels.
const (
	ScopeAPI   = "api"
	ScopeLogin = "login"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Recipe management metrics
	IncRecipeCreated()
	IncRecipeUpdated()
	IncRecipeDeleted()

	// Account and token metrics
	IncUserRegistered()
	IncTokenIssued()
	IncTokenRevoked()

	// Authentication metrics
	IncAuthResult(result string) // result: "success" or "failure"
	IncAuthCacheHit()
	IncAuthCacheMiss()

	// HTTP metrics
	IncRateLimited(scope string) // scope: "api" or "login"
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
