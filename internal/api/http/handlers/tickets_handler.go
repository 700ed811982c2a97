package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints for every role. Scoping is
// decided by the service from the caller identity.
type TicketsHandler struct {
	service *service.TicketService
	options *service.OptionsService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, options *service.OptionsService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, options: options}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Impact:      req.Impact,
	}
	for _, att := range req.Attachments {
		input.Attachments = append(input.Attachments, service.AttachmentInput{Filename: att.Filename, URL: att.URL})
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(actor.Role, ticket)})
}

// ListTickets GET /tickets. Admins see everything; agents pass their own
// agent_id.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(actor.Role, tickets)})
}

// ListMyTickets GET /tickets/my. customer_id defaults to the caller.
func (h *TicketsHandler) ListMyTickets(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	if filter.CustomerID == nil {
		filter.CustomerID = &actor.UserID
	}
	tickets, err := h.service.ListTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(actor.Role, tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), actor, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(actor.Role, ticket)})
}

// UpdateTicket PUT /tickets/:id. Status and assignment travel together
// in one body.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	var input service.TicketUpdateInput
	if req.Status.Valid {
		status := domain.TicketStatus(req.Status.String)
		input.Status = &status
	}
	if req.AgentID.Valid {
		agentID := req.AgentID.Int64
		input.AgentID = &agentID
	}
	if req.ResolutionDetails.Valid {
		details := req.ResolutionDetails.String
		input.ResolutionDetails = &details
	}
	if req.ResolvedAt.Valid {
		resolvedAt := req.ResolvedAt.Time.UTC()
		input.ResolvedAt = &resolvedAt
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, ticketID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(actor.Role, ticket)})
}

// ListNotes GET /tickets/:id/notes.
func (h *TicketsHandler) ListNotes(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	notes, err := h.service.ListNotes(c.UserContext(), actor, ticketID)
	if err != nil {
		return err
	}
	items := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, dto.NewNoteResponse(&notes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateNoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	note, err := h.service.AddNote(c.UserContext(), actor, ticketID, req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewNoteResponse(note)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c, 50)
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.UserContext(), actor, ticketID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}

// Options GET /tickets/options.
func (h *TicketsHandler) Options(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.options.Options()})
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	var filter service.TicketListFilter
	var err error
	if filter.AgentID, err = queryID(c, "agent_id"); err != nil {
		return filter, err
	}
	if filter.CustomerID, err = queryID(c, "customer_id"); err != nil {
		return filter, err
	}
	for _, raw := range queryList(c, "status") {
		status := domain.TicketStatus(strings.ToLower(raw))
		if !status.Valid() {
			return filter, apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range queryList(c, "impact") {
		impact := domain.TicketImpact(strings.ToLower(raw))
		if !impact.Valid() {
			return filter, apperrors.NewValidationError("invalid impact filter", map[string]any{"impact": raw})
		}
		filter.Impacts = append(filter.Impacts, impact)
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filter.Category = &category
	}
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		filter.SearchTerm = &search
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	limit, offset, err := pagination(c, 20)
	if err != nil {
		return filter, err
	}
	filter.Limit, filter.Offset = limit, offset
	return filter, nil
}
