package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/recipeapi/recipeapi/internal/auth"
	"github.com/recipeapi/recipeapi/internal/cache"
	"github.com/recipeapi/recipeapi/internal/metrics"
	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/recipeapi/recipeapi/internal/repository"
)

const touchTimeout = 2 * time.Second

// Credentials is the token exchange input. The password is not trimmed.
type Credentials struct {
	Email    *string `json:"email" validate:"required,notblank,email"`
	Password *string `json:"password" validate:"required,notblank"`
}

// IssuedToken is the result of a successful token exchange. Token is the
// plaintext and is never stored.
type IssuedToken struct {
	Token     string
	ExpiresAt *time.Time
	User      *model.User
}

// TokenConfig controls the tokens a TokenService issues.
type TokenConfig struct {
	Env string        // "live" or "test"
	TTL time.Duration // 0 issues tokens that never expire
}

// TokenService exchanges credentials for tokens and resolves presented
// tokens back to an identity.
type TokenService struct {
	users   UserStore
	tokens  TokenStore
	cache   IdentityCache
	hasher  *auth.Hasher
	cfg     TokenConfig
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time

	touches sync.WaitGroup
}

// NewTokenService creates a new TokenService. cache may be nil.
func NewTokenService(users UserStore, tokens TokenStore, cache IdentityCache, hasher *auth.Hasher, cfg TokenConfig, recorder metrics.Recorder, logger *slog.Logger) *TokenService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenService{
		users:   users,
		tokens:  tokens,
		cache:   cache,
		hasher:  hasher,
		cfg:     cfg,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// Issue verifies email and password and issues a new token. Every
// credential failure returns the same generic ValidationError, and an
// unknown email still costs one Argon2id verification.
func (s *TokenService) Issue(ctx context.Context, in Credentials) (*IssuedToken, error) {
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	if ve := validateStruct(in); ve != nil {
		return nil, ve
	}

	user, err := s.users.GetUserByEmail(ctx, *in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.BurnVerify(*in.Password)
			return nil, credentialsError()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := s.hasher.Verify(*in.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unusable",
			"user_id", user.ID,
			"error", err,
		)
		return nil, credentialsError()
	}
	if !ok || !user.IsActive {
		return nil, credentialsError()
	}

	gen, err := s.hasher.GenerateToken(s.cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.now().UTC()
	token := &model.Token{
		ID:          ulid.Make().String(),
		UserID:      user.ID,
		TokenHash:   gen.Hash,
		TokenPrefix: gen.Prefix,
		CreatedAt:   now,
	}
	if s.cfg.TTL > 0 {
		expires := now.Add(s.cfg.TTL)
		token.ExpiresAt = &expires
	}

	if err := s.tokens.CreateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	s.metrics.IncTokenIssued()

	return &IssuedToken{
		Token:     gen.Plaintext,
		ExpiresAt: token.ExpiresAt,
		User:      user,
	}, nil
}

// Authenticate resolves a presented token to the caller's identity.
// Failures wrap ErrUnauthorized with a short reason for logging; any other
// error is a backend failure.
func (s *TokenService) Authenticate(ctx context.Context, plaintext string) (*model.Identity, error) {
	parsed, err := auth.ParseToken(plaintext)
	if err != nil {
		return nil, s.fail("invalid_format")
	}

	now := s.now()
	cacheKey := auth.QuickHash(plaintext)

	if id := s.cachedIdentity(ctx, cacheKey); id != nil {
		if id.ExpiresAt != nil && !now.Before(*id.ExpiresAt) {
			_ = s.cache.DeleteIdentity(ctx, cacheKey)
			return nil, s.fail("expired")
		}
		s.metrics.IncAuthResult(metrics.AuthSuccess)
		return id, nil
	}

	candidates, err := s.tokens.GetTokensByPrefix(ctx, parsed.Prefix)
	if err != nil {
		return nil, fmt.Errorf("lookup tokens: %w", err)
	}

	// Verify against each candidate (handles prefix collisions)
	var matched *model.Token
	for _, t := range candidates {
		ok, err := s.hasher.Verify(plaintext, t.TokenHash)
		if err != nil {
			continue
		}
		if ok {
			matched = t
			break
		}
	}

	if matched == nil {
		return nil, s.fail("invalid_token")
	}
	if matched.IsRevoked() {
		return nil, s.fail("revoked")
	}
	if matched.IsExpired(now) {
		return nil, s.fail("expired")
	}

	user, err := s.users.GetUserByID(ctx, matched.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, s.fail("unknown_user")
		}
		return nil, fmt.Errorf("lookup token owner: %w", err)
	}
	if !user.IsActive {
		return nil, s.fail("inactive_user")
	}

	id := &model.Identity{
		TokenID:     matched.ID,
		TokenPrefix: matched.TokenPrefix,
		UserID:      user.ID,
		Email:       user.Email,
		ExpiresAt:   matched.ExpiresAt,
	}

	if s.cache != nil {
		if err := s.cache.SetIdentity(ctx, cacheKey, id); err != nil {
			s.logger.Warn("identity cache write failed", "error", err)
		}
	}

	s.touch(matched.ID)
	s.metrics.IncAuthResult(metrics.AuthSuccess)
	return id, nil
}

// Revoke revokes the token the caller authenticated with and evicts its
// cached identity. Revoking an already revoked token succeeds.
func (s *TokenService) Revoke(ctx context.Context, id *model.Identity, plaintext string) error {
	if id == nil {
		return unauthorized("missing_identity")
	}

	err := s.tokens.RevokeToken(ctx, id.TokenID)
	if err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}
	if err == nil {
		s.metrics.IncTokenRevoked()
	}

	if s.cache != nil {
		if err := s.cache.DeleteIdentity(ctx, auth.QuickHash(plaintext)); err != nil {
			s.logger.Warn("identity cache eviction failed",
				"token_id", id.TokenID,
				"error", err,
			)
		}
	}
	return nil
}

// Wait blocks until background last-used updates have finished.
func (s *TokenService) Wait() {
	s.touches.Wait()
}

func (s *TokenService) cachedIdentity(ctx context.Context, cacheKey string) *model.Identity {
	if s.cache == nil {
		return nil
	}

	id, err := s.cache.GetIdentity(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("identity cache read failed", "error", err)
		}
		s.metrics.IncAuthCacheMiss()
		return nil
	}

	s.metrics.IncAuthCacheHit()
	return id
}

// touch records token use without blocking the request.
func (s *TokenService) touch(tokenID string) {
	s.touches.Add(1)
	go func() {
		defer s.touches.Done()

		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()

		if err := s.tokens.TouchToken(ctx, tokenID); err != nil {
			s.logger.Warn("token last-used update failed",
				"token_id", tokenID,
				"error", err,
			)
		}
	}()
}

func (s *TokenService) fail(reason string) error {
	s.metrics.IncAuthResult(metrics.AuthFailure)
	return unauthorized(reason)
}
