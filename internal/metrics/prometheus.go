package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipeapi"

// PrometheusRecorder exports metrics through a private Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	recipes         *prometheus.CounterVec
	usersRegistered prometheus.Counter
	tokens          *prometheus.CounterVec
	authResults     *prometheus.CounterVec
	authCache       *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewPrometheus creates a recorder with its own registry, including the
// Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		recipes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_total",
			Help:      "Recipe mutations by operation",
		}, []string{"op"}),
		usersRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Total number of registered users",
		}),
		tokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Auth tokens issued and revoked",
		}, []string{"op"}),
		authResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Token authentication attempts by result",
		}, []string{"result"}),
		authCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_cache_lookups_total",
			Help:      "Identity cache lookups by outcome",
		}, []string{"outcome"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejects_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"scope"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncRecipeCreated() { p.recipes.WithLabelValues("created").Inc() }
func (p *PrometheusRecorder) IncRecipeUpdated() { p.recipes.WithLabelValues("updated").Inc() }
func (p *PrometheusRecorder) IncRecipeDeleted() { p.recipes.WithLabelValues("deleted").Inc() }

func (p *PrometheusRecorder) IncUserRegistered() { p.usersRegistered.Inc() }
func (p *PrometheusRecorder) IncTokenIssued()    { p.tokens.WithLabelValues("issued").Inc() }
func (p *PrometheusRecorder) IncTokenRevoked()   { p.tokens.WithLabelValues("revoked").Inc() }

func (p *PrometheusRecorder) IncAuthResult(result string) {
	p.authResults.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncAuthCacheHit()  { p.authCache.WithLabelValues("hit").Inc() }
func (p *PrometheusRecorder) IncAuthCacheMiss() { p.authCache.WithLabelValues("miss").Inc() }

func (p *PrometheusRecorder) IncRateLimited(scope string) {
	p.rateLimited.WithLabelValues(scope).Inc()
}

// ObserveRequest records a request under its route pattern, not the raw
// path, so recipe IDs do not explode label cardinality.
func (p *PrometheusRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
