package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketNoteAdded     EventType = "ticket_note_added"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFrom converts a request identity.
func ActorFrom(identity domain.Identity) Actor {
	return Actor{UserID: identity.UserID, Role: identity.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CustomerID  int64               `json:"customer_id"`
	Category    string              `json:"category"`
	Impact      domain.TicketImpact `json:"impact"`
	Title       string              `json:"title"`
	Attachments int                 `json:"attachments"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus         domain.TicketStatus `json:"old_status"`
	NewStatus         domain.TicketStatus `json:"new_status"`
	ResolutionDetails *string             `json:"resolution_details,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	PreviousAgentID *int64 `json:"previous_agent_id,omitempty"`
	AgentID         int64  `json:"agent_id"`
}

// TicketNoteAddedPayload payload.
type TicketNoteAddedPayload struct {
	NoteID      int64  `json:"note_id"`
	AuthorID    int64  `json:"author_id"`
	TextPreview string `json:"text_preview"`
}
