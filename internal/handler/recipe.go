package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/recipeapi/recipeapi/internal/auth"
	"github.com/recipeapi/recipeapi/internal/handler/dto"
	"github.com/recipeapi/recipeapi/internal/service"
)

// RecipeHandler handles HTTP requests for recipe operations. Every route
// sits behind the auth middleware.
type RecipeHandler struct {
	svc    *service.RecipeService
	logger *slog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(svc *service.RecipeService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/recipes.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRecipeSummaries(recipes))
}

// Get handles GET /api/recipes/{id}.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		writeServiceError(w, r, h.logger, service.ErrRecipeNotFound)
		return
	}

	recipe, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRecipeDetail(recipe))
}

// Create handles POST /api/recipes.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeRecipeRequest(r.Body)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := req.Err(); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	recipe, err := h.svc.Create(r.Context(), userID, req.Input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("recipe_created",
		"recipe_id", recipe.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusCreated, dto.ToRecipeDetail(recipe))
}

// Replace handles PUT /api/recipes/{id}.
func (h *RecipeHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.decodeForUpdate(w, r)
	if !ok {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	recipe, err := h.svc.Replace(r.Context(), userID, id, req.Input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("recipe_replaced",
		"recipe_id", recipe.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToRecipeDetail(recipe))
}

// Update handles PATCH /api/recipes/{id}.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.decodeForUpdate(w, r)
	if !ok {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	recipe, err := h.svc.Update(r.Context(), userID, id, req.Update())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("recipe_updated",
		"recipe_id", recipe.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToRecipeDetail(recipe))
}

// Delete handles DELETE /api/recipes/{id}.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		writeServiceError(w, r, h.logger, service.ErrRecipeNotFound)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("recipe_deleted",
		"recipe_id", id,
		"user_id", userID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// decodeForUpdate reads the id and body of a PUT or PATCH. A recipe the
// caller cannot see is reported as not found before any body problem.
func (h *RecipeHandler) decodeForUpdate(w http.ResponseWriter, r *http.Request) (int64, *dto.RecipeRequest, bool) {
	id, ok := recipeID(r)
	if !ok {
		writeServiceError(w, r, h.logger, service.ErrRecipeNotFound)
		return 0, nil, false
	}

	req, err := dto.DecodeRecipeRequest(r.Body)
	if err != nil {
		writeDecodeError(w, err)
		return 0, nil, false
	}

	if typeErr := req.Err(); typeErr != nil {
		if _, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), id); err != nil {
			writeServiceError(w, r, h.logger, err)
			return 0, nil, false
		}
		writeServiceError(w, r, h.logger, typeErr)
		return 0, nil, false
	}

	return id, req, true
}

// recipeID parses the {id} path parameter. Anything but a positive integer
// cannot name a recipe.
func recipeID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
