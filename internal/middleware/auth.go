package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/recipeapi/recipeapi/internal/auth"
	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/recipeapi/recipeapi/internal/service"
)

// DefaultAuthMinDuration is the minimum time spent on authentication so
// that hits, misses and failures take the same time.
const DefaultAuthMinDuration = 200 * time.Millisecond

// Authenticator resolves a presented token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	// MinDuration pads every attempt. Zero disables padding.
	MinDuration time.Duration
}

// Auth returns a middleware that authenticates API requests.
// It extracts the token from the request, resolves it and injects the
// identity into the request context. Requests without a valid token never
// reach next.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, cfg)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					cfg.Logger.Warn("authentication failed",
						slog.String("reason", failureReason(err)),
						slog.String("ip", r.RemoteAddr),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeAuthError(w)
					return
				}

				cfg.Logger.Error("authentication backend error",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("token_id", id.TokenID),
				slog.String("token_prefix", id.TokenPrefix),
				slog.String("user_id", id.UserID),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, cfg AuthConfig) (*model.Identity, error) {
	start := time.Now()

	// Ensure consistent timing regardless of outcome
	defer func() {
		if elapsed := time.Since(start); elapsed < cfg.MinDuration {
			time.Sleep(cfg.MinDuration - elapsed)
		}
	}()

	token := ExtractToken(r)
	if token == "" {
		return nil, fmt.Errorf("%w: missing_token", service.ErrUnauthorized)
	}
	return cfg.Authenticator.Authenticate(r.Context(), token)
}

// ExtractToken extracts the token from the request.
// Supports "Authorization: Token <t>", "Authorization: Bearer <t>" and
// "X-API-Key: <t>". The scheme is matched case-insensitively.
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok {
			return ""
		}
		if strings.EqualFold(scheme, "Token") || strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
		return ""
	}

	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// failureReason returns the short reason wrapped after ErrUnauthorized.
func failureReason(err error) string {
	_, reason, ok := strings.Cut(err.Error(), ": ")
	if !ok {
		return "unknown"
	}
	return reason
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Token")
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing token")
}
