package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/recipeapi/recipeapi/internal/cache"
	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/recipeapi/recipeapi/internal/repository"
)

// MemoryStore is an in-memory stand-in for the PostgreSQL repository. It
// returns the same sentinel errors and hands out copies so callers cannot
// mutate stored rows.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	recipes map[int64]model.Recipe
	users   map[string]model.User
	tokens  map[string]model.Token

	// Calls counts every store method invocation.
	Calls int
	// Err, when set, is returned by every method.
	Err error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recipes: make(map[int64]model.Recipe),
		users:   make(map[string]model.User),
		tokens:  make(map[string]model.Token),
	}
}

func (m *MemoryStore) enter() error {
	m.Calls++
	return m.Err
}

// CallCount returns the number of store calls so far.
func (m *MemoryStore) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// ---- recipes ----

func (m *MemoryStore) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	if _, ok := m.users[recipe.UserID]; !ok {
		return repository.ErrUserNotFound
	}

	m.nextID++
	now := time.Now().UTC()
	recipe.ID = m.nextID
	recipe.CreatedAt = now
	recipe.UpdatedAt = now
	m.recipes[recipe.ID] = *recipe
	return nil
}

func (m *MemoryStore) ListRecipesByUser(ctx context.Context, userID string) ([]*model.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}

	out := make([]*model.Recipe, 0)
	for _, r := range m.recipes {
		if r.UserID == userID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetRecipe(ctx context.Context, id int64, userID string) (*model.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}

	r, ok := m.recipes[id]
	if !ok || !r.OwnedBy(userID) {
		return nil, repository.ErrRecipeNotFound
	}
	return &r, nil
}

func (m *MemoryStore) UpdateRecipe(ctx context.Context, recipe *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}

	stored, ok := m.recipes[recipe.ID]
	if !ok || !stored.OwnedBy(recipe.UserID) {
		return repository.ErrRecipeNotFound
	}

	updated := *recipe
	updated.UserID = stored.UserID
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	recipe.UpdatedAt = updated.UpdatedAt
	m.recipes[recipe.ID] = updated
	return nil
}

func (m *MemoryStore) DeleteRecipe(ctx context.Context, id int64, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}

	r, ok := m.recipes[id]
	if !ok || !r.OwnedBy(userID) {
		return repository.ErrRecipeNotFound
	}
	delete(m.recipes, id)
	return nil
}

// SeedUser stores u directly, bypassing the email uniqueness check.
func (m *MemoryStore) SeedUser(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
}

// RecipeCount returns how many recipes are stored.
func (m *MemoryStore) RecipeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recipes)
}

// ---- users ----

func (m *MemoryStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}

	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}

	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *MemoryStore) UpdateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}

	stored, ok := m.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	stored.Email = user.Email
	stored.Name = user.Name
	stored.PasswordHash = user.PasswordHash
	m.users[user.ID] = stored
	return nil
}

func (m *MemoryStore) SetUserActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}

	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

// UserCount returns how many users are stored.
func (m *MemoryStore) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// ---- tokens ----

func (m *MemoryStore) CreateToken(ctx context.Context, token *model.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}

	if _, ok := m.users[token.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	m.tokens[token.ID] = *token
	return nil
}

func (m *MemoryStore) GetTokensByPrefix(ctx context.Context, prefix string) ([]*model.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}

	var out []*model.Token
	for _, t := range m.tokens {
		if t.TokenPrefix == prefix && t.RevokedAt == nil {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (m *MemoryStore) RevokeToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}

	t, ok := m.tokens[id]
	if !ok || t.RevokedAt != nil {
		return repository.ErrTokenNotFound
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	m.tokens[id] = t
	return nil
}

func (m *MemoryStore) RevokeUserTokens(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return 0, err
	}

	var n int64
	now := time.Now().UTC()
	for id, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			m.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) TouchToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}

	t, ok := m.tokens[id]
	if !ok {
		return repository.ErrTokenNotFound
	}
	now := time.Now().UTC()
	t.LastUsedAt = &now
	m.tokens[id] = t
	return nil
}

// Token returns a copy of a stored token.
func (m *MemoryStore) Token(id string) (model.Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	return t, ok
}

// MemoryIdentityCache is an in-memory identity cache without TTLs.
type MemoryIdentityCache struct {
	mu      sync.Mutex
	entries map[string]model.Identity
}

// NewMemoryIdentityCache returns an empty MemoryIdentityCache.
func NewMemoryIdentityCache() *MemoryIdentityCache {
	return &MemoryIdentityCache{entries: make(map[string]model.Identity)}
}

func (c *MemoryIdentityCache) GetIdentity(ctx context.Context, cacheKey string) (*model.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.entries[cacheKey]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &id, nil
}

func (c *MemoryIdentityCache) SetIdentity(ctx context.Context, cacheKey string, id *model.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey] = *id
	return nil
}

func (c *MemoryIdentityCache) DeleteIdentity(ctx context.Context, cacheKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey)
	return nil
}

func (c *MemoryIdentityCache) InvalidateUserIdentities(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, id := range c.entries {
		if id.UserID == userID {
			delete(c.entries, k)
		}
	}
	return nil
}

// Len returns the number of cached identities.
func (c *MemoryIdentityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
