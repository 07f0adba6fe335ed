package dto

import "github.com/quillhq/quill/internal/model"

// RegisterRequest represents the body of POST /register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginForm holds the OAuth2 password-flow form of POST /token.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// CookieLoginForm holds the form of POST /login.
type CookieLoginForm struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// UpdateMeRequest represents the body of POST /me.
type UpdateMeRequest struct {
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ToUserResponse converts a model.User.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email}
}

// TokenResponse is returned by POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CSRFResponse is returned by GET /csrf.
type CSRFResponse struct {
	CSRFToken string `json:"csrf_token"`
}
