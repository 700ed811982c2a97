package domain

import "time"

// TokenPurpose distinguishes single-use account tokens.
type TokenPurpose string

const (
	TokenPurposeVerifyEmail   TokenPurpose = "verify_email"
	TokenPurposeResetPassword TokenPurpose = "reset_password"
)

// AuthToken is an expiring single-use token mailed to a user.
type AuthToken struct {
	ID        int64
	UserID    int64
	Purpose   TokenPurpose
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be redeemed at now.
func (t *AuthToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// Session is the server-side record behind an access token.
type Session struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	Authenticated bool      `json:"authenticated"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Complete reports whether the session carries everything needed to
// act as an authenticated identity.
func (s *Session) Complete() bool {
	return s != nil && s.ID != "" && s.Authenticated && s.UserID > 0 && s.Role.Valid()
}

// Identity is the normalised caller produced at the authentication
// boundary and passed through request context.
type Identity struct {
	UserID int64
	Role   Role
}
