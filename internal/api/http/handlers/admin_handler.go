package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler exposes administrator endpoints.
type AdminHandler struct {
	users       *service.UserService
	assignments *service.AssignmentService
	reports     *service.ReportService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(users *service.UserService, assignments *service.AssignmentService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{users: users, assignments: assignments, reports: reports}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	filters := service.UserListFilters{}
	if raw := strings.ToLower(strings.TrimSpace(c.Query("role"))); raw != "" {
		role := domain.Role(raw)
		if !role.Valid() {
			return apperrors.NewValidationError("invalid role filter", map[string]any{"role": raw})
		}
		filters.Role = &role
	}
	if raw := strings.ToLower(strings.TrimSpace(c.Query("status"))); raw != "" {
		status := domain.UserStatus(raw)
		if status != domain.UserStatusActive && status != domain.UserStatusInactive {
			return apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
		filters.Status = &status
	}
	limit, offset, err := pagination(c, 50)
	if err != nil {
		return err
	}
	filters.Limit, filters.Offset = limit, offset

	users, err := h.users.ListUsers(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// CreateUser POST /admin/users.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateUser(c.UserContext(), actor, service.CreateUserInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       req.Role,
		Status:     domain.UserStatus(req.Status),
		Department: req.Department,
		Position:   req.Position,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListAgents GET /admin/agents returns the active agents a ticket may be
// assigned to.
func (h *AdminHandler) ListAgents(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	agents, err := h.assignments.ListAssignableAgents(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(agents)})
}

// TicketReport GET /admin/reports/tickets streams an XLSX export.
func (h *AdminHandler) TicketReport(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	report, err := h.reports.TicketReport(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="tickets-%s.xlsx"`, time.Now().UTC().Format("20060102")))
	return c.Send(report)
}

func userResponses(users []domain.User) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return items
}
