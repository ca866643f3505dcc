package service

import (
	"context"

	"github.com/recipeapi/recipeapi/internal/model"
)

// RecipeStore persists recipes. Every read and write that names an
// existing recipe is scoped to its owner.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	ListRecipesByUser(ctx context.Context, userID string) ([]*model.Recipe, error)
	GetRecipe(ctx context.Context, id int64, userID string) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *model.Recipe) error
	DeleteRecipe(ctx context.Context, id int64, userID string) error
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	SetUserActive(ctx context.Context, id string, active bool) error
}

// TokenStore persists hashed auth tokens.
type TokenStore interface {
	CreateToken(ctx context.Context, token *model.Token) error
	GetTokensByPrefix(ctx context.Context, prefix string) ([]*model.Token, error)
	RevokeToken(ctx context.Context, id string) error
	RevokeUserTokens(ctx context.Context, userID string) (int64, error)
	TouchToken(ctx context.Context, id string) error
}

// IdentityCache caches resolved identities by a hash of the presented token.
// GetIdentity returns cache.ErrCacheMiss when the key is absent.
type IdentityCache interface {
	GetIdentity(ctx context.Context, cacheKey string) (*model.Identity, error)
	SetIdentity(ctx context.Context, cacheKey string, id *model.Identity) error
	DeleteIdentity(ctx context.Context, cacheKey string) error
	InvalidateUserIdentities(ctx context.Context, userID string) error
}
