package dto

import (
	"io"

	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/recipeapi/recipeapi/internal/service"
)

// Recipe body fields. Anything else, including "user", is ignored.
const (
	fieldTitle       = "title"
	fieldTimeMinutes = "time_minutes"
	fieldPrice       = "price"
	fieldDescription = "description"
	fieldLink        = "link"
)

// RecipeRequest is a decoded recipe body. Fields that were absent, null or
// of the wrong type are nil; type problems are reported by Err.
type RecipeRequest struct {
	input service.RecipeInput
	errs  *service.ValidationError
}

// DecodeRecipeRequest reads a recipe body. It fails only when the body is
// not a JSON object.
func DecodeRecipeRequest(r io.Reader) (*RecipeRequest, error) {
	obj, err := decodeObject(r)
	if err != nil {
		return nil, err
	}

	req := &RecipeRequest{
		input: service.RecipeInput{
			Title:       obj.String(fieldTitle),
			TimeMinutes: obj.Int(fieldTimeMinutes),
			Price:       obj.Decimal(fieldPrice),
			Description: obj.String(fieldDescription),
			Link:        obj.String(fieldLink),
		},
	}
	req.errs = obj.Err()
	return req, nil
}

// Err returns the per-field type errors of the body, or nil.
func (r *RecipeRequest) Err() error {
	if r.errs == nil {
		return nil
	}
	return r.errs
}

// Input returns the body as a create or replace input.
func (r *RecipeRequest) Input() service.RecipeInput {
	return r.input
}

// Update returns the body as a partial update.
func (r *RecipeRequest) Update() service.RecipeUpdate {
	return service.RecipeUpdate{
		Title:       r.input.Title,
		TimeMinutes: r.input.TimeMinutes,
		Price:       r.input.Price,
		Description: r.input.Description,
		Link:        r.input.Link,
	}
}

// RecipeSummary is the list representation of a recipe.
type RecipeSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	Price       string `json:"price"`
	Link        string `json:"link"`
}

// RecipeDetail is the single-recipe representation: the summary plus the
// description.
type RecipeDetail struct {
	RecipeSummary
	Description string `json:"description"`
}

// ToRecipeSummary converts a Recipe model to its list representation.
// Price is rendered with exactly two decimal places.
func ToRecipeSummary(r *model.Recipe) RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(model.PricePlaces),
		Link:        r.Link,
	}
}

// ToRecipeDetail converts a Recipe model to its detail representation.
func ToRecipeDetail(r *model.Recipe) RecipeDetail {
	return RecipeDetail{
		RecipeSummary: ToRecipeSummary(r),
		Description:   r.Description,
	}
}

// ToRecipeSummaries converts a list of recipes. The result is never nil so
// an empty list encodes as [].
func ToRecipeSummaries(recipes []*model.Recipe) []RecipeSummary {
	out := make([]RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, ToRecipeSummary(r))
	}
	return out
}
