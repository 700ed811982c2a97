package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
)

// ErrResolutionRequired is returned when a plain status change asks for
// resolved. Use Resolve, which carries the resolution details.
var ErrResolutionRequired = errors.New("resolving a ticket requires the resolve step")

// TicketQuery narrows ticket listings.
type TicketQuery struct {
	Statuses []string
	Impacts  []string
	Category string
	Search   string
	Page     int
	PageSize int
}

func (q TicketQuery) values() url.Values {
	v := url.Values{}
	if len(q.Statuses) > 0 {
		v.Set("status", strings.Join(q.Statuses, ","))
	}
	if len(q.Impacts) > 0 {
		v.Set("impact", strings.Join(q.Impacts, ","))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// ListTickets returns the tickets on the caller's dashboard: everything
// for admins, assigned tickets for agents and own tickets for clients.
func (c *Client) ListTickets(ctx context.Context, query TicketQuery) ([]Ticket, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	values := query.values()
	path := "/tickets"
	switch sess.User.CanonicalRole() {
	case domain.RoleAdmin, domain.RoleSuperadmin:
	case domain.RoleAgent:
		values.Set("agent_id", strconv.FormatInt(sess.User.ID, 10))
	default:
		path = "/tickets/my"
		values.Set("customer_id", strconv.FormatInt(sess.User.ID, 10))
	}
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var tickets []Ticket
	if err := c.do(ctx, fiber.MethodGet, path, nil, &tickets); err != nil {
		return nil, err
	}
	return FilterVisible(sess, tickets), nil
}

// GetTicket fetches one ticket.
func (c *Client) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	var ticket Ticket
	if err := c.do(ctx, fiber.MethodGet, ticketPath(id), nil, &ticket); err != nil {
		return nil, err
	}
	if len(FilterVisible(sess, []Ticket{ticket})) == 0 {
		return nil, ErrNotPermitted
	}
	return &ticket, nil
}

// CreateTicket opens a ticket for the caller.
func (c *Client) CreateTicket(ctx context.Context, in NewTicket) (*Ticket, error) {
	if _, err := c.requireSession(); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" || in.Category == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("title, description and category are required"))
	}
	if in.Impact == "" {
		in.Impact = string(domain.TicketImpactMedium)
	}
	if !domain.TicketImpact(in.Impact).Valid() {
		return nil, errors.Join(ErrInvalidInput, fmt.Errorf("unknown impact %q", in.Impact))
	}
	var ticket Ticket
	if err := c.do(ctx, fiber.MethodPost, "/tickets", in, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ChangeStatus sets a new status. Choosing resolved here is intercepted
// with ErrResolutionRequired and nothing is sent.
func (c *Client) ChangeStatus(ctx context.Context, id int64, status string) (*Ticket, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	if !policy.CanChangeStatus(sess.User.CanonicalRole()) {
		return nil, ErrNotPermitted
	}
	next := domain.TicketStatus(status)
	if !next.Valid() {
		return nil, errors.Join(ErrInvalidInput, fmt.Errorf("unknown status %q", status))
	}
	if policy.RequiresResolution(next) {
		return nil, ErrResolutionRequired
	}
	return c.UpdateTicket(ctx, id, TicketUpdate{Status: &status})
}

// Resolve marks a ticket resolved with the given details, stamped with
// the current time. Empty details are sent as-is.
func (c *Client) Resolve(ctx context.Context, id int64, details string) (*Ticket, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	if !policy.CanChangeStatus(sess.User.CanonicalRole()) {
		return nil, ErrNotPermitted
	}
	change := policy.NewResolution(details, c.now())
	status := string(change.Status)
	return c.UpdateTicket(ctx, id, TicketUpdate{
		Status:            &status,
		ResolutionDetails: change.ResolutionDetails,
		ResolvedAt:        change.ResolvedAt,
	})
}

// Assign gives the ticket to an agent and moves it to in_progress in the
// same request.
func (c *Client) Assign(ctx context.Context, id, agentID int64) (*Ticket, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	if !policy.CanAssign(sess.User.CanonicalRole()) {
		return nil, ErrNotPermitted
	}
	if agentID <= 0 {
		return nil, errors.Join(ErrInvalidInput, errors.New("agent id is required"))
	}
	status := string(domain.TicketStatusInProgress)
	return c.UpdateTicket(ctx, id, TicketUpdate{AgentID: &agentID, Status: &status})
}

// UpdateTicket sends a raw partial update.
func (c *Client) UpdateTicket(ctx context.Context, id int64, update TicketUpdate) (*Ticket, error) {
	var ticket Ticket
	if err := c.do(ctx, fiber.MethodPut, ticketPath(id), update, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListNotes returns internal notes. Staff only.
func (c *Client) ListNotes(ctx context.Context, id int64) ([]Note, error) {
	if err := c.requireStaff(); err != nil {
		return nil, err
	}
	var notes []Note
	err := c.do(ctx, fiber.MethodGet, ticketPath(id)+"/notes", nil, &notes)
	return notes, err
}

// AddNote appends an internal note. Staff only.
func (c *Client) AddNote(ctx context.Context, id int64, text string) (*Note, error) {
	if err := c.requireStaff(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("note text is required"))
	}
	var note Note
	if err := c.do(ctx, fiber.MethodPost, ticketPath(id)+"/notes", map[string]string{"text": text}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// History returns the ticket's audit trail.
func (c *Client) History(ctx context.Context, id int64) ([]HistoryEntry, error) {
	if _, err := c.requireSession(); err != nil {
		return nil, err
	}
	var entries []HistoryEntry
	err := c.do(ctx, fiber.MethodGet, ticketPath(id)+"/history", nil, &entries)
	return entries, err
}

// Options returns the ticket form choices.
func (c *Client) Options(ctx context.Context) (*TicketOptions, error) {
	var opts TicketOptions
	if err := c.do(ctx, fiber.MethodGet, "/tickets/options", nil, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

func (c *Client) requireStaff() error {
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	if !policy.CanReadNotes(sess.User.CanonicalRole()) {
		return ErrNotPermitted
	}
	return nil
}

func ticketPath(id int64) string {
	return "/tickets/" + strconv.FormatInt(id, 10)
}
