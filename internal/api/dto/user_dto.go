package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// RegisterRequest payload for self sign-up.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenRequest carries a mailed verification or reset token.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateUserRequest is the admin user creation payload. Role may be a
// name, synonym, numeric code or role object.
type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name"`
	Role       any    `json:"role"`
	Status     string `json:"status" validate:"omitempty,oneof=active inactive"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID            int64             `json:"id"`
	Email         string            `json:"email"`
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	Role          domain.Role       `json:"role"`
	Status        domain.UserStatus `json:"status"`
	Department    string            `json:"department,omitempty"`
	Position      string            `json:"position,omitempty"`
	EmailVerified bool              `json:"email_verified"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	User          UserResponse `json:"user"`
	Auth          AuthResponse `json:"auth"`
	Authenticated bool         `json:"authenticated"`
	Redirect      string       `json:"redirect"`
}

// SettingsRequest updates preferences.
type SettingsRequest struct {
	Theme domain.Theme `json:"theme" validate:"required,oneof=light dark system"`
}

// SettingsResponse carries preferences.
type SettingsResponse struct {
	Theme     domain.Theme `json:"theme"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
}
