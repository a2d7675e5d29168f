package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the account registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// User represents a user profile as returned by the backend.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// AuthResponse is the login/register response. The backend has two shapes:
// a bare token ({access_token, token_type}) and a token with session metadata
// ({access_token, expires_at, user}). Both decode into this struct; absent
// fields stay zero.
type AuthResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	User        *User      `json:"user,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// TestUserResponse is the create-test-user acknowledgement, carrying the
// generated credentials so they can be shown once.
type TestUserResponse struct {
	Message  string `json:"message"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the RegisterRequest using the validator.
func (r *RegisterRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
