// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/recipeapi/recipeapi/internal/metrics"
	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/recipeapi/recipeapi/internal/repository"
	"github.com/shopspring/decimal"
)

// RecipeInput is the full field set of a create or replace. Nil means the
// field was not supplied.
type RecipeInput struct {
	Title       *string          `json:"title" validate:"required,notblank,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"required,min=0,max=2147483647"`
	Price       *decimal.Decimal `json:"price" validate:"-"`
	Description *string          `json:"description"`
	Link        *string          `json:"link" validate:"omitnil,max=255"`
}

// RecipeUpdate is a partial update; only non-nil fields change.
type RecipeUpdate struct {
	Title       *string          `json:"title" validate:"omitnil,notblank,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitnil,min=0,max=2147483647"`
	Price       *decimal.Decimal `json:"price" validate:"-"`
	Description *string          `json:"description"`
	Link        *string          `json:"link" validate:"omitnil,max=255"`
}

// RecipeService handles recipe business logic.
type RecipeService struct {
	store   RecipeStore
	metrics metrics.Recorder
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(store RecipeStore, recorder metrics.Recorder) *RecipeService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RecipeService{
		store:   store,
		metrics: recorder,
	}
}

// List returns the caller's recipes, newest first.
func (s *RecipeService) List(ctx context.Context, userID string) ([]*model.Recipe, error) {
	if userID == "" {
		return nil, unauthorized("missing_identity")
	}

	recipes, err := s.store.ListRecipesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Get returns one of the caller's recipes. Recipes owned by someone else
// are reported as not found.
func (s *RecipeService) Get(ctx context.Context, userID string, id int64) (*model.Recipe, error) {
	if userID == "" {
		return nil, unauthorized("missing_identity")
	}

	recipe, err := s.store.GetRecipe(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// Create stores a new recipe owned by userID.
func (s *RecipeService) Create(ctx context.Context, userID string, in RecipeInput) (*model.Recipe, error) {
	if userID == "" {
		return nil, unauthorized("missing_identity")
	}

	in.Title, in.Link = trimPtr(in.Title), trimPtr(in.Link)
	if err := validateRecipeInput(in); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{UserID: userID}
	in.apply(recipe)

	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	s.metrics.IncRecipeCreated()
	return recipe, nil
}

// Replace overwrites every mutable field of one of the caller's recipes.
// Omitted optional fields are reset to empty. The owner never changes.
func (s *RecipeService) Replace(ctx context.Context, userID string, id int64, in RecipeInput) (*model.Recipe, error) {
	recipe, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	in.Title, in.Link = trimPtr(in.Title), trimPtr(in.Link)
	if err := validateRecipeInput(in); err != nil {
		return nil, err
	}

	in.apply(recipe)
	return s.save(ctx, recipe)
}

// Update applies a partial update to one of the caller's recipes.
func (s *RecipeService) Update(ctx context.Context, userID string, id int64, in RecipeUpdate) (*model.Recipe, error) {
	recipe, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	in.Title, in.Link = trimPtr(in.Title), trimPtr(in.Link)
	ve := validateStruct(in)
	if ve == nil {
		ve = NewValidationError()
	}
	if in.Price != nil {
		addPriceErrors(ve, *in.Price)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	patch := model.RecipePatch{
		Title:       in.Title,
		TimeMinutes: in.TimeMinutes,
		Price:       in.Price,
		Description: in.Description,
		Link:        in.Link,
	}
	if patch.IsEmpty() {
		return recipe, nil
	}

	patch.Apply(recipe)
	return s.save(ctx, recipe)
}

// Delete removes one of the caller's recipes.
func (s *RecipeService) Delete(ctx context.Context, userID string, id int64) error {
	if userID == "" {
		return unauthorized("missing_identity")
	}

	if err := s.store.DeleteRecipe(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	s.metrics.IncRecipeDeleted()
	return nil
}

func (s *RecipeService) save(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	if err := s.store.UpdateRecipe(ctx, recipe); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			// Deleted between read and write.
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	s.metrics.IncRecipeUpdated()
	return recipe, nil
}

func validateRecipeInput(in RecipeInput) error {
	ve := validateStruct(in)
	if ve == nil {
		ve = NewValidationError()
	}
	if in.Price == nil {
		ve.Add("price", MsgRequired)
	} else {
		addPriceErrors(ve, *in.Price)
	}
	return ve.OrNil()
}

func addPriceErrors(ve *ValidationError, price decimal.Decimal) {
	for _, msg := range validatePrice(price) {
		ve.Add("price", msg)
	}
}

// apply assigns the full field set. Callers validate first, so the
// required pointers are non-nil.
func (in RecipeInput) apply(r *model.Recipe) {
	r.Title = *in.Title
	r.TimeMinutes = *in.TimeMinutes
	r.Price = *in.Price
	r.Description = valueOrEmpty(in.Description)
	r.Link = valueOrEmpty(in.Link)
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
