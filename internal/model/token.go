package model

import "time"

// Token is a stored authentication token. Only the hash of the
// plaintext is persisted; the plaintext is shown once at issue time.
type Token struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	TokenHash   string     `json:"-"` // Never serialize
	TokenPrefix string     `json:"token_prefix"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsRevoked returns true if the token has been revoked.
func (t *Token) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired returns true if the token has a lifetime and it has passed.
func (t *Token) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// Identity is the authenticated caller attached to a request by the
// auth middleware.
type Identity struct {
	TokenID     string     `json:"token_id"`
	TokenPrefix string     `json:"token_prefix"`
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
