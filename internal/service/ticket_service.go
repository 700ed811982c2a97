package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	notes       repository.NoteRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	history     repository.TicketHistoryRepository
	assignments *AssignmentService
	options     *OptionsService
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	NoteRepo       repository.NoteRepository
	AttachmentRepo repository.AttachmentRepository
	UserRepo       repository.UserRepository
	HistoryRepo    repository.TicketHistoryRepository
	Assignments    *AssignmentService
	Options        *OptionsService
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// AttachmentInput describes a file uploaded with a new ticket.
type AttachmentInput struct {
	Filename string
	URL      string
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Impact      domain.TicketImpact
	Attachments []AttachmentInput
}

// TicketListFilter describes listing filters. CustomerID and AgentID are
// narrowed further by the caller's visibility scope.
type TicketListFilter struct {
	CustomerID  *int64
	AgentID     *int64
	Statuses    []domain.TicketStatus
	Impacts     []domain.TicketImpact
	Category    *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

func (f TicketListFilter) repositoryFilter() repository.TicketFilter {
	return repository.TicketFilter{
		CustomerID:  f.CustomerID,
		AgentID:     f.AgentID,
		Statuses:    f.Statuses,
		Impacts:     f.Impacts,
		Category:    f.Category,
		SearchTerm:  f.SearchTerm,
		CreatedFrom: f.CreatedFrom,
		CreatedTo:   f.CreatedTo,
		Limit:       f.Limit,
		Offset:      f.Offset,
	}
}

// TicketUpdateInput is a partial ticket update. Nil fields are left
// unchanged. An assignment and a status change in the same input are
// applied as one write.
type TicketUpdateInput struct {
	Status            *domain.TicketStatus
	AgentID           *int64
	ResolutionDetails *string
	ResolvedAt        *time.Time
}

func (in TicketUpdateInput) empty() bool {
	return in.Status == nil && in.AgentID == nil && in.ResolutionDetails == nil && in.ResolvedAt == nil
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	options := deps.Options
	if options == nil {
		options = &OptionsService{options: DefaultTicketOptions()}
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		notes:       deps.NoteRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		history:     deps.HistoryRepo,
		assignments: deps.Assignments,
		options:     options,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// CreateTicket opens a ticket owned by the caller. New tickets are
// always open and unassigned.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Impact:      input.Impact,
		Status:      domain.TicketStatusOpen,
		CustomerID:  actor.UserID,
	}
	if ticket.Impact == "" {
		ticket.Impact = domain.TicketImpactMedium
	}
	if ticket.Title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"title": "required"})
	}
	if !s.options.HasCategory(ticket.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": "oneof"})
	}
	if !s.options.HasImpact(ticket.Impact) {
		return nil, apperrors.NewValidationError("unknown impact", map[string]any{"impact": "oneof"})
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, in := range input.Attachments {
		att := &domain.Attachment{
			TicketID: ticket.ID,
			Filename: strings.TrimSpace(in.Filename),
			URL:      strings.TrimSpace(in.URL),
		}
		if err := s.attachments.Create(ctx, att); err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket.Attachments = append(ticket.Attachments, *att)
	}
	if err := s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeCreated, nil, map[string]any{
		"status": ticket.Status,
		"title":  ticket.Title,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketCreatedPayload{
			CustomerID:  ticket.CustomerID,
			Category:    ticket.Category,
			Impact:      ticket.Impact,
			Title:       ticket.Title,
			Attachments: len(ticket.Attachments),
		},
	})
	return ticket, nil
}

// ListTickets returns tickets visible to the caller. Asking for another
// customer's or agent's tickets outside one's own scope is forbidden.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Identity, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := filter.repositoryFilter()
	scope := policy.ScopeFor(actor)
	switch {
	case scope.All:
	case scope.AgentID != nil:
		if filter.AgentID != nil && *filter.AgentID != *scope.AgentID {
			return nil, apperrors.NewForbidden("agents may only list their assigned tickets")
		}
		repoFilter.AgentID = scope.AgentID
	case scope.CustomerID != nil:
		if filter.CustomerID != nil && *filter.CustomerID != *scope.CustomerID {
			return nil, apperrors.NewForbidden("clients may only list their own tickets")
		}
		if filter.AgentID != nil {
			return nil, apperrors.NewForbidden("clients may not filter by agent")
		}
		repoFilter.CustomerID = scope.CustomerID
	default:
		return []domain.Ticket{}, nil
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policy.FilterVisible(actor, tickets), nil
}

// GetTicket fetches a ticket with its attachments.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Identity, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.visibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Attachments = attachments
	return ticket, nil
}

// UpdateTicket applies a status change and/or assignment. Concurrent
// updates are not serialised; the last write wins.
func (s *TicketService) UpdateTicket(ctx context.Context, actor domain.Identity, ticketID int64, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.empty() {
		return nil, apperrors.NewValidationError("nothing to update", nil)
	}
	ticket, err := s.visibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	var assignee *domain.User
	if input.AgentID != nil {
		if s.assignments == nil {
			return nil, apperrors.NewForbidden("assignment unavailable")
		}
		if input.Status != nil && *input.Status == domain.TicketStatusOpen {
			return nil, policyError(policy.ErrAssignedTicketOpen)
		}
		assignee, err = s.assignments.ResolveAssignee(ctx, actor, *input.AgentID)
		if err != nil {
			return nil, err
		}
	}

	var change *policy.StatusChange
	if input.Status != nil {
		change = &policy.StatusChange{
			Status:            *input.Status,
			ResolutionDetails: input.ResolutionDetails,
			ResolvedAt:        input.ResolvedAt,
		}
		if err := policy.ValidateStatusChange(actor.Role, *change); err != nil {
			return nil, policyError(err)
		}
	} else if input.ResolutionDetails != nil || input.ResolvedAt != nil {
		return nil, policyError(policy.ErrResolutionWithoutResolve)
	}

	oldStatus := ticket.Status
	oldAgent := ticket.AgentID
	assigned := false
	if assignee != nil {
		assigned = policy.ApplyAssignment(ticket, assignee.ID)
	}
	if change != nil {
		policy.ApplyStatusChange(ticket, *change)
	}
	if !assigned && ticket.Status == oldStatus && change == nil {
		return ticket, nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, notFound(err, "ticket", ticketID)
	}

	if assigned {
		if err := s.assignments.RecordAssignment(ctx, actor, ticket.ID, oldAgent, assignee.ID); err != nil {
			return nil, err
		}
	}
	if ticket.Status != oldStatus {
		if err := s.recordStatusChange(ctx, actor, ticket, oldStatus); err != nil {
			return nil, apperrors.MapError(err)
		}
	} else if change != nil && policy.RequiresResolution(change.Status) {
		// re-resolving keeps the status but replaces the resolution
		if err := s.recordResolution(ctx, actor, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return ticket, nil
}

// ListNotes returns internal notes. Only staff who can see the ticket
// may read them.
func (s *TicketService) ListNotes(ctx context.Context, actor domain.Identity, ticketID int64) ([]domain.Note, error) {
	if !policy.CanReadNotes(actor.Role) {
		return nil, apperrors.NewForbidden("notes are restricted to staff")
	}
	if _, err := s.visibleTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notes, nil
}

// AddNote appends an internal note.
func (s *TicketService) AddNote(ctx context.Context, actor domain.Identity, ticketID int64, text string) (*domain.Note, error) {
	if !policy.CanReadNotes(actor.Role) {
		return nil, apperrors.NewForbidden("notes are restricted to staff")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("note text is required", map[string]any{"text": "required"})
	}
	ticket, err := s.visibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, "user", actor.UserID)
	}

	note := &domain.Note{
		TicketID: ticket.ID,
		AuthorID: author.ID,
		Author:   author.FullName(),
		Text:     text,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeNote, nil, map[string]any{
		"note_id": note.ID,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketNoteAdded,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketNoteAddedPayload{
			NoteID:      note.ID,
			AuthorID:    note.AuthorID,
			TextPreview: stringPreview(note.Text, 120),
		},
	})
	return note, nil
}

// ListHistory returns audit entries. Clients only see status and
// assignment changes, with resolved masked the same way as the ticket.
func (s *TicketService) ListHistory(ctx context.Context, actor domain.Identity, ticketID int64, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.visibleTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	filter := repository.HistoryFilter{TicketID: ticketID, Limit: limit, Offset: offset}
	if !actor.Role.IsStaff() {
		filter.ChangeTypes = clientHistoryTypes
	}
	history, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if history == nil {
		history = []domain.TicketHistory{}
	}
	if actor.Role.IsStaff() {
		return history, nil
	}
	for i := range history {
		if history[i].ChangeType == domain.ChangeTypeStatus {
			history[i].OldValue = maskStatusValue(actor.Role, history[i].OldValue)
			history[i].NewValue = maskStatusValue(actor.Role, history[i].NewValue)
		}
	}
	return history, nil
}

var clientHistoryTypes = []domain.TicketChangeType{
	domain.ChangeTypeCreated,
	domain.ChangeTypeAssignee,
	domain.ChangeTypeStatus,
}

func maskStatusValue(role domain.Role, value map[string]any) map[string]any {
	if value == nil {
		return nil
	}
	out := make(map[string]any, len(value))
	for k, v := range value {
		out[k] = v
	}
	switch status := value["status"].(type) {
	case domain.TicketStatus:
		out["status"] = policy.DisplayStatus(role, status)
	case string:
		out["status"] = policy.DisplayStatus(role, domain.TicketStatus(status))
	}
	delete(out, "resolution_details")
	return out
}

func (s *TicketService) visibleTicket(ctx context.Context, actor domain.Identity, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFound(err, "ticket", ticketID)
	}
	if !policy.CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *TicketService) recordStatusChange(ctx context.Context, actor domain.Identity, ticket *domain.Ticket, oldStatus domain.TicketStatus) error {
	newValue := map[string]any{"status": ticket.Status}
	if ticket.Status == domain.TicketStatusResolved && ticket.ResolutionDetails != nil {
		newValue["resolution_details"] = *ticket.ResolutionDetails
	}
	if err := s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeStatus,
		map[string]any{"status": oldStatus}, newValue); err != nil {
		return err
	}
	if ticket.Status == domain.TicketStatusResolved {
		if err := s.recordResolution(ctx, actor, ticket); err != nil {
			return err
		}
	}

	payload := events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: ticket.Status,
	}
	if ticket.Status == domain.TicketStatusResolved {
		payload.ResolutionDetails = ticket.ResolutionDetails
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(actor),
		Payload:  payload,
	})
	return nil
}

func (s *TicketService) recordResolution(ctx context.Context, actor domain.Identity, ticket *domain.Ticket) error {
	value := map[string]any{}
	if ticket.ResolutionDetails != nil {
		value["resolution_details"] = *ticket.ResolutionDetails
	}
	if ticket.ResolvedAt != nil {
		value["resolved_at"] = ticket.ResolvedAt.Format(time.RFC3339)
	}
	return s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeResolution, nil, value)
}

func (s *TicketService) recordHistory(ctx context.Context, actor domain.Identity, ticketID int64, changeType domain.TicketChangeType, oldValue, newValue map[string]any) error {
	if s.history == nil {
		return nil
	}
	return s.history.Create(ctx, &domain.TicketHistory{
		TicketID:   ticketID,
		ActorID:    actorID(actor),
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}
