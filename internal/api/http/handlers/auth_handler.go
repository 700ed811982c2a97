package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/service"
)

// AuthHandler serves registration, login and token redemption.
type AuthHandler struct {
	service *service.AuthService
	// exposeTokens echoes verification and reset tokens in responses.
	// Only enabled outside production where no mailer is wired.
	exposeTokens bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, exposeTokens bool) *AuthHandler {
	return &AuthHandler{service: authService, exposeTokens: exposeTokens}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, token, err := h.service.Register(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	resp := fiber.Map{"user": dto.NewUserResponse(user)}
	if h.exposeTokens && token != nil {
		resp["verification_token"] = token.Token
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": resp})
}

// VerifyEmail POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.service.VerifyEmail(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		User:          dto.NewUserResponse(result.User),
		Auth:          dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		Authenticated: true,
		Redirect:      policy.DashboardPath(result.User.Role),
	}})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, ok := auth.SessionFromContext(c)
	if ok {
		if err := h.service.Logout(c.UserContext(), sess.ID); err != nil {
			return err
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ForgotPassword POST /auth/forgot-password. The response never reveals
// whether the email is registered.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	token, err := h.service.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	resp := fiber.Map{"status": "reset_requested"}
	if h.exposeTokens && token != nil {
		resp["reset_token"] = token.Token
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": resp})
}

// ResetPassword POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}
