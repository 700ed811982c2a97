package dto

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
)

// NewTicketResponse renders a ticket for role, masking the status the
// way that role is meant to see it. A masked ticket also hides its
// resolution.
func NewTicketResponse(role domain.Role, ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:                ticket.ID,
		Title:             ticket.Title,
		Description:       ticket.Description,
		Category:          ticket.Category,
		Impact:            ticket.Impact,
		Status:            policy.DisplayStatus(role, ticket.Status),
		CustomerID:        ticket.CustomerID,
		AgentID:           ticket.AgentID,
		ResolutionDetails: ticket.ResolutionDetails,
		ResolvedAt:        ticket.ResolvedAt,
		CreatedAt:         ticket.CreatedAt,
		UpdatedAt:         ticket.UpdatedAt,
	}
	if resp.Status != ticket.Status {
		resp.ResolutionDetails = nil
		resp.ResolvedAt = nil
	}
	for _, att := range ticket.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{ID: att.ID, Filename: att.Filename, URL: att.URL})
	}
	return resp
}

// NewTicketResponses renders a list.
func NewTicketResponses(role domain.Role, tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(role, &tickets[i]))
	}
	return items
}

// NewUserResponse renders an account.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Role:          user.Role,
		Status:        user.Status,
		Department:    user.Department,
		Position:      user.Position,
		EmailVerified: user.EmailVerified,
	}
}

// NewNoteResponse renders a note.
func NewNoteResponse(note *domain.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		TicketID:  note.TicketID,
		Author:    note.Author,
		Text:      note.Text,
		CreatedAt: note.CreatedAt,
	}
}

// NewHistoryResponses renders audit entries.
func NewHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	resp := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, TicketHistoryResponse{
			ID:         entry.ID,
			ChangeType: entry.ChangeType,
			ActorID:    entry.ActorID,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}
