package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
)

var (
	// ErrNotAuthenticated is returned when a call needs a session.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrNotPermitted is returned when the session role may not perform
	// the call.
	ErrNotPermitted = errors.New("not permitted for this role")
	// ErrInvalidInput is returned for requests rejected before sending.
	ErrInvalidInput = errors.New("invalid input")
)

type loginResponse struct {
	User *User `json:"user"`
	Auth struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	} `json:"auth"`
	Authenticated bool   `json:"authenticated"`
	Redirect      string `json:"redirect"`
}

// Login authenticates and persists the session. It returns the path of
// the dashboard the user lands on.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", errors.Join(ErrInvalidInput, errors.New("email and password are required"))
	}
	var resp loginResponse
	if err := c.do(ctx, fiber.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return "", err
	}
	sess := &Session{User: resp.User, Token: resp.Auth.Token, ExpiresAt: resp.Auth.ExpiresAt, Authenticated: resp.Authenticated}
	if !sess.Complete() {
		return policy.LoginPath, errors.New("login response missing session data")
	}
	if err := c.setSession(sess); err != nil {
		return "", err
	}
	return c.Route(), nil
}

// Logout ends the server session and forgets the local one. The local
// state is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	var err error
	if c.token() != "" {
		err = c.do(ctx, fiber.MethodPost, "/auth/logout", nil, nil)
	}
	if clearErr := c.setSession(nil); clearErr != nil {
		return clearErr
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == fiber.StatusUnauthorized {
		return nil
	}
	return err
}

// Route returns where the current session should be sent: the role's
// dashboard, or the login page without a complete session.
func (c *Client) Route() string {
	sess := c.Session()
	if !sess.Complete() {
		return policy.LoginPath
	}
	return policy.Guard(true, sess.User.CanonicalRole())
}

// Register signs up a client account.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	if strings.TrimSpace(email) == "" || len(password) < 8 || strings.TrimSpace(firstName) == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("email, first name and a password of at least 8 characters are required"))
	}
	var resp struct {
		User *User `json:"user"`
	}
	err := c.do(ctx, fiber.MethodPost, "/auth/register", map[string]string{
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
	}, &resp)
	return resp.User, err
}

// VerifyEmail redeems a verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.do(ctx, fiber.MethodPost, "/auth/verify-email", map[string]string{"token": token}, nil)
}

// ForgotPassword requests a reset token by email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, fiber.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword sets a new password with a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	return c.do(ctx, fiber.MethodPost, "/auth/reset-password", map[string]string{"token": token, "password": password}, nil)
}

// Theme returns the persisted theme.
func (c *Client) Theme() domain.Theme {
	if c.state != nil {
		if theme, err := c.state.Theme(); err == nil {
			return theme
		}
	}
	return domain.ThemeSystem
}

// SetTheme stores the theme locally and, when logged in, on the server.
func (c *Client) SetTheme(ctx context.Context, theme domain.Theme) error {
	if !theme.Valid() {
		return errors.Join(ErrInvalidInput, errors.New("theme must be light, dark or system"))
	}
	if c.state != nil {
		if err := c.state.SaveTheme(theme); err != nil {
			return err
		}
	}
	if c.token() == "" {
		return nil
	}
	return c.do(ctx, fiber.MethodPut, "/me/settings", map[string]string{"theme": string(theme)}, nil)
}

func (c *Client) requireSession() (*Session, error) {
	sess := c.Session()
	if !sess.Complete() {
		return nil, ErrNotAuthenticated
	}
	return sess, nil
}
