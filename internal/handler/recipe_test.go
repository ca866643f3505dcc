package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipeapi/recipeapi/internal/handler/dto"
	"github.com/recipeapi/recipeapi/internal/service"
)

func samplePayload() map[string]any {
	return map[string]any{
		"title":        "Sample recipe",
		"time_minutes": 42,
		"price":        8.55,
	}
}

func createRecipe(t *testing.T, api *testAPI, token string, payload map[string]any) dto.RecipeDetail {
	t.Helper()
	rec := api.do(http.MethodPost, "/api/recipes", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[dto.RecipeDetail](t, rec)
}

func TestRecipes_RequireAuthentication(t *testing.T) {
	api := newTestAPI(t)

	requests := []struct{ method, path string }{
		{http.MethodGet, "/api/recipes"},
		{http.MethodPost, "/api/recipes"},
		{http.MethodGet, "/api/recipes/1"},
		{http.MethodPut, "/api/recipes/1"},
		{http.MethodPatch, "/api/recipes/1"},
		{http.MethodDelete, "/api/recipes/1"},
	}

	for _, req := range requests {
		t.Run(req.method+" "+req.path, func(t *testing.T) {
			before := api.store.CallCount()

			rec := api.do(req.method, req.path, "", samplePayload())

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", decodeJSON[dto.ErrorResponse](t, rec).Error.Code)
			assert.Equal(t, before, api.store.CallCount(), "store must not be touched")
		})
	}
}

func TestRecipes_CreateThenRetrieve(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("cook@example.com")

	created := createRecipe(t, api, token, samplePayload())

	want := dto.RecipeDetail{
		RecipeSummary: dto.RecipeSummary{
			ID:          created.ID,
			Title:       "Sample recipe",
			TimeMinutes: 42,
			Price:       "8.55",
			Link:        "",
		},
		Description: "",
	}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Errorf("created recipe mismatch (-want +got):\n%s", diff)
	}

	rec := api.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	if diff := cmp.Diff(want, decodeJSON[dto.RecipeDetail](t, rec)); diff != "" {
		t.Errorf("retrieved recipe mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, uint64(1), api.metrics.Snapshot().RecipesCreated)
}

func TestRecipes_DetailIsSupersetOfSummary(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("cook@example.com")

	payload := samplePayload()
	payload["description"] = "Slow cooked"
	payload["link"] = "https://example.com/r.pdf"
	created := createRecipe(t, api, token, payload)

	list := decodeJSON[[]map[string]any](t, api.do(http.MethodGet, "/api/recipes", token, nil))
	require.Len(t, list, 1)
	assert.ElementsMatch(t, []string{"id", "title", "time_minutes", "price", "link"}, keys(list[0]))

	detail := decodeJSON[map[string]any](t, api.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", created.ID), token, nil))
	assert.ElementsMatch(t, []string{"id", "title", "time_minutes", "price", "link", "description"}, keys(detail))
	assert.Equal(t, "Slow cooked", detail["description"])
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRecipes_ListIsolationAndOrder(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login("alice@example.com")
	bob := api.login("bob@example.com")

	first := createRecipe(t, api, alice, samplePayload())
	second := createRecipe(t, api, alice, samplePayload())
	foreign := createRecipe(t, api, bob, samplePayload())

	rec := api.do(http.MethodGet, "/api/recipes", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeJSON[[]dto.RecipeSummary](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", foreign.ID), alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RECIPE_NOT_FOUND", decodeJSON[dto.ErrorResponse](t, rec).Error.Code)
}

func TestRecipes_EmptyListIsArray(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("cook@example.com")

	rec := api.do(http.MethodGet, "/api/recipes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRecipes_ReplaceKeepsOwnerAndResetsOptional(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login("alice@example.com")
	bob := api.login("bob@example.com")

	payload := samplePayload()
	payload["description"] = "Original"
	created := createRecipe(t, api, alice, payload)

	rec := api.do(http.MethodPut, fmt.Sprintf("/api/recipes/%d", created.ID), alice, map[string]any{
		"title":        "Replaced",
		"time_minutes": 10,
		"price":        "1.50",
		"user":         "someone-else",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeJSON[dto.RecipeDetail](t, rec)
	assert.Equal(t, "Replaced", got.Title)
	assert.Equal(t, "1.50", got.Price)
	assert.Empty(t, got.Description, "omitted optional fields reset")

	// Still owned by alice: bob cannot see it, alice can.
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", created.ID), bob, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", created.ID), alice, nil).Code)
}

func TestRecipes_PatchUserFieldIsIgnored(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login("alice@example.com")
	created := createRecipe(t, api, alice, samplePayload())

	rec := api.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d", created.ID), alice, map[string]any{"user": "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	if diff := cmp.Diff(created, decodeJSON[dto.RecipeDetail](t, rec)); diff != "" {
		t.Errorf("recipe changed (-before +after):\n%s", diff)
	}
	assert.Zero(t, api.metrics.Snapshot().RecipesUpdated, "empty patch must not write")

	rec = api.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d", created.ID), alice, map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeJSON[dto.RecipeDetail](t, rec)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, created.Price, got.Price)
}

func TestRecipes_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  any
		field string
		msg   string
	}{
		{"missing title", map[string]any{"time_minutes": 1, "price": 1}, "title", service.MsgRequired},
		{"blank title", map[string]any{"title": "  ", "time_minutes": 1, "price": 1}, "title", service.MsgBlank},
		{"null title", map[string]any{"title": nil, "time_minutes": 1, "price": 1}, "title", service.MsgNull},
		{"object title", map[string]any{"title": map[string]any{}, "time_minutes": 1, "price": 1}, "title", service.MsgInvalidString},
		{"non integer minutes", map[string]any{"title": "t", "time_minutes": "abc", "price": 1}, "time_minutes", service.MsgInvalidInt},
		{"fractional minutes", map[string]any{"title": "t", "time_minutes": 1.5, "price": 1}, "time_minutes", service.MsgInvalidInt},
		{"negative minutes", map[string]any{"title": "t", "time_minutes": -1, "price": 1}, "time_minutes", "Ensure this value is greater than or equal to 0."},
		{"bool price", map[string]any{"title": "t", "time_minutes": 1, "price": true}, "price", service.MsgInvalidNumber},
		{"text price", map[string]any{"title": "t", "time_minutes": 1, "price": "cheap"}, "price", service.MsgInvalidNumber},
		{"negative price", map[string]any{"title": "t", "time_minutes": 1, "price": "-1.00"}, "price", "Ensure this value is greater than or equal to 0."},
		{"too many places", `{"title":"t","time_minutes":1,"price":1.555}`, "price", "Ensure that there are no more than 2 decimal places."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			token := api.login("cook@example.com")

			rec := api.do(http.MethodPost, "/api/recipes", token, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			body := decodeJSON[dto.ErrorResponse](t, rec).Error
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
			assert.Contains(t, body.Fields[tt.field], tt.msg)
			assert.Zero(t, api.store.RecipeCount())
		})
	}
}

func TestRecipes_AcceptsNumericStrings(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("cook@example.com")

	got := createRecipe(t, api, token, map[string]any{"title": "t", "time_minutes": "15", "price": "5"})
	assert.Equal(t, 15, got.TimeMinutes)
	assert.Equal(t, "5.00", got.Price)
}

func TestRecipes_MalformedBody(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("cook@example.com")

	for _, body := range []string{`{"title":`, `[1,2]`, `null`, `"x"`, `{} {}`} {
		rec := api.do(http.MethodPost, "/api/recipes", token, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "INVALID_JSON", decodeJSON[dto.ErrorResponse](t, rec).Error.Code, body)
	}
}

func TestRecipes_InvalidIDIsNotFound(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("cook@example.com")

	for _, id := range []string{"abc", "0", "-1", "99999999999999999999"} {
		rec := api.do(http.MethodGet, "/api/recipes/"+id, token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
	}
}

func TestRecipes_ForeignUpdateIsNotFoundBeforeValidation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login("alice@example.com")
	bob := api.login("bob@example.com")
	created := createRecipe(t, api, alice, samplePayload())

	path := fmt.Sprintf("/api/recipes/%d", created.ID)
	bad := map[string]any{"time_minutes": "abc"}

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, path, bob, bad).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, path, bob, bad).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPatch, path, alice, bad).Code)
}

func TestRecipes_Delete(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login("alice@example.com")
	bob := api.login("bob@example.com")
	created := createRecipe(t, api, alice, samplePayload())
	path := fmt.Sprintf("/api/recipes/%d", created.ID)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, bob, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, alice, nil).Code)
}
