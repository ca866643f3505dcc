// Package model defines domain entities for the application.
package model

import "time"

// User field limits.
const (
	MinPasswordLength = 5
	MaxPasswordLength = 128
	MaxEmailLength    = 255
	MaxNameLength     = 255
)

// User is an account that owns recipes and authenticates with email and password.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never serialize
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
