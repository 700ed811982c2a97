package client

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ListUsers returns accounts, optionally narrowed to one role.
func (c *Client) ListUsers(ctx context.Context, role string) ([]User, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	path := "/admin/users"
	if role != "" {
		path += "?" + url.Values{"role": {role}}.Encode()
	}
	var users []User
	err := c.do(ctx, fiber.MethodGet, path, nil, &users)
	return users, err
}

// CreateUser creates an account on behalf of an administrator.
func (c *Client) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	if in.Email == "" || len(in.Password) < 8 || in.FirstName == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("email, first name and a password of at least 8 characters are required"))
	}
	var user User
	if err := c.do(ctx, fiber.MethodPost, "/admin/users", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AssignableAgents returns active agents. Inactive or non-agent entries
// in the response are dropped.
func (c *Client) AssignableAgents(ctx context.Context) ([]User, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	var users []User
	if err := c.do(ctx, fiber.MethodGet, "/admin/agents", nil, &users); err != nil {
		return nil, err
	}
	agents := users[:0]
	for _, u := range users {
		if u.CanonicalRole() == domain.RoleAgent && u.Status == string(domain.UserStatusActive) {
			agents = append(agents, u)
		}
	}
	return agents, nil
}

// TicketReport downloads the XLSX ticket export.
func (c *Client) TicketReport(ctx context.Context, query TicketQuery) ([]byte, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	path := "/admin/reports/tickets"
	if encoded := query.values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	body, _, err := c.send(ctx, fiber.MethodGet, path, nil)
	return body, err
}

func (c *Client) requireAdmin() error {
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	if !sess.User.CanonicalRole().IsAdmin() {
		return ErrNotPermitted
	}
	return nil
}
