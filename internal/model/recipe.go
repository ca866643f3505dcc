// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe field limits.
const (
	MaxTitleLength = 255
	MaxLinkLength  = 255

	// PriceMaxDigits and PricePlaces mirror the NUMERIC(5,2) column.
	PriceMaxDigits = 5
	PricePlaces    = 2
)

// Recipe is a user-owned recipe record.
type Recipe struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"-"` // Owner, immutable after creation
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Link        string          `json:"link"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OwnedBy reports whether the recipe belongs to the given user.
func (r *Recipe) OwnedBy(userID string) bool {
	return userID != "" && r.UserID == userID
}

// RecipePatch holds the mutable recipe fields of a partial update.
// Nil fields are left unchanged. There is deliberately no owner field.
type RecipePatch struct {
	Title       *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Description *string
	Link        *string
}

// IsEmpty returns true if the patch changes nothing.
func (p RecipePatch) IsEmpty() bool {
	return p.Title == nil && p.TimeMinutes == nil && p.Price == nil &&
		p.Description == nil && p.Link == nil
}

// Apply copies every non-nil field of the patch onto the recipe.
func (p RecipePatch) Apply(r *Recipe) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.TimeMinutes != nil {
		r.TimeMinutes = *p.TimeMinutes
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Link != nil {
		r.Link = *p.Link
	}
}
