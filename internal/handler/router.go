package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/recipeapi/recipeapi/internal/metrics"
	"github.com/recipeapi/recipeapi/internal/middleware"
	"github.com/recipeapi/recipeapi/internal/service"
)

// RouterConfig wires services and middleware settings into the router.
type RouterConfig struct {
	Logger  *slog.Logger
	Recipes *service.RecipeService
	Users   *service.UserService
	Tokens  *service.TokenService
	Health  *HealthHandler

	// Metrics records request metrics; MetricsHandler, when set, is served
	// on GET /metrics.
	Metrics        metrics.Recorder
	MetricsHandler http.Handler

	AuthMinDuration time.Duration
	// RateLimit.Limiter nil disables rate limiting.
	RateLimit   middleware.RateLimitConfig
	CORS        middleware.CORSConfig
	Security    middleware.SecurityConfig
	MaxBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxRequestBodySize
	}

	h := New()
	health := cfg.Health
	if health == nil {
		health = NewHealthHandler(nil, nil)
	}
	recipes := NewRecipeHandler(cfg.Recipes, logger)
	users := NewUserHandler(cfg.Users, cfg.Tokens, logger)

	authCfg := middleware.AuthConfig{
		Logger:        logger,
		Authenticator: cfg.Tokens,
		MinDuration:   cfg.AuthMinDuration,
	}

	rateLimitCfg := cfg.RateLimit
	rateLimitCfg.Logger = logger
	rateLimitCfg.Metrics = recorder
	if rateLimitCfg.Limiter == nil {
		rateLimitCfg.APIEnabled = false
		rateLimitCfg.LoginEnabled = false
	}

	r := chi.NewRouter()

	// Set before any Route/Mount so sub-routers inherit them.
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, recorder))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))

	// Health endpoints (no auth required)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(maxBody))

		// Public endpoints
		r.Post("/users", users.Register)
		r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/users/token", users.IssueToken)

		// Everything else requires a token
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Use(middleware.RateLimitAPI(rateLimitCfg))

			r.Delete("/users/token", users.RevokeToken)
			r.Get("/users/me", users.Me)
			r.Patch("/users/me", users.UpdateMe)

			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", recipes.List)
				r.Post("/", recipes.Create)
				r.Get("/{id}", recipes.Get)
				r.Put("/{id}", recipes.Replace)
				r.Patch("/{id}", recipes.Update)
				r.Delete("/{id}", recipes.Delete)
			})
		})
	})

	return r
}
