package dto

import (
	"io"
	"time"

	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/recipeapi/recipeapi/internal/service"
)

// UserRequest is a decoded user body: registration, credentials or a
// profile update all share the email/password/name fields.
type UserRequest struct {
	Email    *string
	Password *string
	Name     *string
	errs     *service.ValidationError
}

// DecodeUserRequest reads a user body. It fails only when the body is not
// a JSON object.
func DecodeUserRequest(r io.Reader) (*UserRequest, error) {
	obj, err := decodeObject(r)
	if err != nil {
		return nil, err
	}

	req := &UserRequest{
		Email:    obj.String("email"),
		Password: obj.String("password"),
		Name:     obj.String("name"),
	}
	req.errs = obj.Err()
	return req, nil
}

// Err returns the per-field type errors of the body, or nil.
func (r *UserRequest) Err() error {
	if r.errs == nil {
		return nil
	}
	return r.errs
}

// RegisterInput returns the body as a registration.
func (r *UserRequest) RegisterInput() service.RegisterInput {
	return service.RegisterInput{Email: r.Email, Password: r.Password, Name: r.Name}
}

// ProfileUpdate returns the body as a partial profile update.
func (r *UserRequest) ProfileUpdate() service.ProfileUpdate {
	return service.ProfileUpdate{Email: r.Email, Password: r.Password, Name: r.Name}
}

// Credentials returns the email and password of a token exchange.
func (r *UserRequest) Credentials() service.Credentials {
	return service.Credentials{Email: r.Email, Password: r.Password}
}

// UserResponse represents a user in API responses. The password is never
// included.
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ToUserResponse converts a User model to its representation.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{Email: u.Email, Name: u.Name}
}

// TokenResponse is the result of a token exchange. ExpiresAt is null for
// tokens that never expire.
type TokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// ToTokenResponse converts an issued token.
func ToTokenResponse(t *service.IssuedToken) TokenResponse {
	return TokenResponse{Token: t.Token, ExpiresAt: t.ExpiresAt}
}
