package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncRecipeCreated()             {}
func (n *NoopRecorder) IncRecipeUpdated()             {}
func (n *NoopRecorder) IncRecipeDeleted()             {}
func (n *NoopRecorder) IncUserRegistered()            {}
func (n *NoopRecorder) IncTokenIssued()               {}
func (n *NoopRecorder) IncTokenRevoked()              {}
func (n *NoopRecorder) IncAuthResult(result string)   {}
func (n *NoopRecorder) IncAuthCacheHit()              {}
func (n *NoopRecorder) IncAuthCacheMiss()             {}
func (n *NoopRecorder) IncRateLimited(scope string)   {}

func (n *NoopRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {}
