package dto

import (
	"time"

	"github.com/aarondl/null/v8"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"required"`
	Category    string              `json:"category" validate:"required"`
	Impact      domain.TicketImpact `json:"impact" validate:"required,oneof=low medium high critical"`
	Attachments []AttachmentRequest `json:"attachments" validate:"omitempty,dive"`
}

// AttachmentRequest describes an uploaded file.
type AttachmentRequest struct {
	Filename string `json:"filename" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
}

// UpdateTicketRequest is the partial PUT body. Absent and null fields
// are both treated as "leave unchanged".
type UpdateTicketRequest struct {
	Status            null.String `json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
	AgentID           null.Int64  `json:"agent_id" validate:"omitempty,gt=0"`
	ResolutionDetails null.String `json:"resolution_details"`
	ResolvedAt        null.Time   `json:"resolved_at"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Text string `json:"text" validate:"required"`
}

// TicketResponse is the ticket as shown to the caller. Status is already
// masked for clients.
type TicketResponse struct {
	ID                int64                `json:"id"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Category          string               `json:"category"`
	Impact            domain.TicketImpact  `json:"impact"`
	Status            domain.TicketStatus  `json:"status"`
	CustomerID        int64                `json:"customer_id"`
	AgentID           *int64               `json:"agent_id"`
	ResolutionDetails *string              `json:"resolution_details"`
	ResolvedAt        *time.Time           `json:"resolved_at"`
	Attachments       []AttachmentResponse `json:"attachments,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// NoteResponse is an internal staff note.
type NoteResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID         int64                   `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	ActorID    *int64                  `json:"actor_id"`
	OldValue   map[string]any          `json:"old_value"`
	NewValue   map[string]any          `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}
