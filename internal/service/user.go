package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/recipeapi/recipeapi/internal/auth"
	"github.com/recipeapi/recipeapi/internal/metrics"
	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/recipeapi/recipeapi/internal/repository"
)

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Email    *string `json:"email" validate:"required,notblank,email,max=255"`
	Password *string `json:"password" validate:"required,notblank,min=5,max=128"`
	Name     *string `json:"name" validate:"required,notblank,max=255"`
}

// ProfileUpdate changes the caller's own account. Nil fields are kept.
type ProfileUpdate struct {
	Email    *string `json:"email" validate:"omitnil,notblank,email,max=255"`
	Password *string `json:"password" validate:"omitnil,notblank,min=5,max=128"`
	Name     *string `json:"name" validate:"omitnil,notblank,max=255"`
}

// UserService handles account business logic.
type UserService struct {
	users   UserStore
	tokens  TokenStore
	cache   IdentityCache
	hasher  *auth.Hasher
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, tokens TokenStore, cache IdentityCache, hasher *auth.Hasher, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:   users,
		tokens:  tokens,
		cache:   cache,
		hasher:  hasher,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates an active user. The password is stored only as an
// Argon2id hash; nothing is persisted when validation fails.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	in.Name = trimPtr(in.Name)

	if ve := validateStruct(in); ve != nil {
		return nil, ve
	}

	hash, err := s.hasher.Hash(*in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        *in.Email,
		Name:         *in.Name,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, fieldError("email", MsgEmailExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	return user, nil
}

// Get returns the user with the given ID.
func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's account. A new
// password is re-hashed. Cached identities are dropped so a changed email
// is visible on the next request.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	in.Name = trimPtr(in.Name)

	if ve := validateStruct(in); ve != nil {
		return nil, ve
	}

	if in.Email == nil && in.Name == nil && in.Password == nil {
		return user, nil
	}

	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, fieldError("email", MsgEmailExists)
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.invalidateIdentities(ctx, user.ID)
	return user, nil
}

// SetActive enables or disables a user by email. Disabling also revokes
// every token of the user.
func (s *UserService) SetActive(ctx context.Context, email string, active bool) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.users.SetUserActive(ctx, user.ID, active); err != nil {
		return nil, fmt.Errorf("set user active: %w", err)
	}
	user.IsActive = active

	if !active {
		revoked, err := s.tokens.RevokeUserTokens(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("revoke user tokens: %w", err)
		}
		for i := int64(0); i < revoked; i++ {
			s.metrics.IncTokenRevoked()
		}
	}

	s.invalidateIdentities(ctx, user.ID)
	return user, nil
}

func (s *UserService) invalidateIdentities(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUserIdentities(ctx, userID); err != nil {
		s.logger.Warn("identity cache invalidation failed",
			"user_id", userID,
			"error", err,
		)
	}
}
