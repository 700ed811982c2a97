package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/service"
)

// AccountHandler serves the caller's own profile and preferences.
type AccountHandler struct {
	users    *service.UserService
	settings *service.SettingsService
}

// NewAccountHandler constructs handler.
func NewAccountHandler(users *service.UserService, settings *service.SettingsService) *AccountHandler {
	return &AccountHandler{users: users, settings: settings}
}

// Me GET /me returns the caller with their guarded landing route.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUser(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user":          dto.NewUserResponse(user),
		"authenticated": true,
		"redirect":      policy.Guard(true, actor.Role),
	}})
}

// GetSettings GET /me/settings.
func (h *AccountHandler) GetSettings(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	settings, err := h.settings.Get(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(settings.Theme, settings.UpdatedAt)})
}

// UpdateSettings PUT /me/settings.
func (h *AccountHandler) UpdateSettings(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.SettingsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	settings, err := h.settings.SetTheme(c.UserContext(), actor, req.Theme)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(settings.Theme, settings.UpdatedAt)})
}
