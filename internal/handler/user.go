package handler

import (
	"log/slog"
	"net/http"

	"github.com/recipeapi/recipeapi/internal/auth"
	"github.com/recipeapi/recipeapi/internal/handler/dto"
	"github.com/recipeapi/recipeapi/internal/middleware"
	"github.com/recipeapi/recipeapi/internal/service"
)

// UserHandler handles registration, the token exchange and the caller's
// own account.
type UserHandler struct {
	users  *service.UserService
	tokens *service.TokenService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, tokens *service.TokenService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register handles POST /api/users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.users.Register(r.Context(), req.RegisterInput())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// IssueToken handles POST /api/users/token.
func (h *UserHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r, h.logger)
	if !ok {
		return
	}

	issued, err := h.tokens.Issue(r.Context(), req.Credentials())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("token_issued", "user_id", issued.User.ID)

	writeJSON(w, http.StatusOK, dto.ToTokenResponse(issued))
}

// RevokeToken handles DELETE /api/users/token. It revokes the token the
// request was authenticated with.
func (h *UserHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if err := h.tokens.Revoke(r.Context(), id, middleware.ExtractToken(r)); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("token_revoked",
		"token_id", id.TokenID,
		"user_id", id.UserID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// UpdateMe handles PATCH /api/users/me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r, h.logger)
	if !ok {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	user, err := h.users.UpdateProfile(r.Context(), userID, req.ProfileUpdate())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_updated", "user_id", userID)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

func decodeUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*dto.UserRequest, bool) {
	req, err := dto.DecodeUserRequest(r.Body)
	if err != nil {
		writeDecodeError(w, err)
		return nil, false
	}
	if err := req.Err(); err != nil {
		writeServiceError(w, r, logger, err)
		return nil, false
	}
	return req, true
}
