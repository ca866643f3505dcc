package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	// identityCachePrefix is the Redis key prefix for resolved identities.
	identityCachePrefix = "auth:ident:"
	// userIdentitiesPrefix indexes the identity keys cached for one user.
	userIdentitiesPrefix = "auth:user:"
	// IdentityCacheTTL is the time-to-live for cached identities.
	IdentityCacheTTL = 5 * time.Minute
)

// ErrCacheMiss is returned when a key is not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// GetIdentity retrieves a cached identity by cache key.
// Returns ErrCacheMiss if not found or if the entry is unreadable.
func (c *Cache) GetIdentity(ctx context.Context, cacheKey string) (*model.Identity, error) {
	data, err := c.client.Get(ctx, identityCachePrefix+cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}

	var id model.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, ErrCacheMiss
	}

	return &id, nil
}

// SetIdentity caches an identity. The entry never outlives the token it
// was resolved from.
func (c *Cache) SetIdentity(ctx context.Context, cacheKey string, id *model.Identity) error {
	ttl := identityTTL(id, time.Now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	userKey := userIdentitiesPrefix + id.UserID
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, identityCachePrefix+cacheKey, data, ttl)
	pipe.SAdd(ctx, userKey, cacheKey)
	pipe.Expire(ctx, userKey, IdentityCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set identity: %w", err)
	}
	return nil
}

// DeleteIdentity removes a cached identity.
// Used when a token is revoked.
func (c *Cache) DeleteIdentity(ctx context.Context, cacheKey string) error {
	return c.client.Del(ctx, identityCachePrefix+cacheKey).Err()
}

// InvalidateUserIdentities removes every cached identity of a user, e.g.
// after the account is deactivated or all its tokens are revoked.
func (c *Cache) InvalidateUserIdentities(ctx context.Context, userID string) error {
	userKey := userIdentitiesPrefix + userID

	cacheKeys, err := c.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list user identities: %w", err)
	}

	keys := make([]string, 0, len(cacheKeys)+1)
	for _, k := range cacheKeys {
		keys = append(keys, identityCachePrefix+k)
	}
	keys = append(keys, userKey)

	return c.client.Del(ctx, keys...).Err()
}

// identityTTL caps the cache lifetime at the token's remaining lifetime.
func identityTTL(id *model.Identity, now time.Time) time.Duration {
	if id.ExpiresAt == nil {
		return IdentityCacheTTL
	}
	remaining := id.ExpiresAt.Sub(now)
	if remaining < IdentityCacheTTL {
		return remaining
	}
	return IdentityCacheTTL
}
