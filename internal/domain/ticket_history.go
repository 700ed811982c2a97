package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated    TicketChangeType = "created"
	ChangeTypeStatus     TicketChangeType = "status_change"
	ChangeTypeAssignee   TicketChangeType = "assignee_change"
	ChangeTypeResolution TicketChangeType = "resolution"
	ChangeTypeNote       TicketChangeType = "note_added"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID         int64
	TicketID   int64
	ActorID    *int64
	ChangeType TicketChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
