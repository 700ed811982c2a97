package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists statuses in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, status := range TicketStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// TicketImpact is the informational severity tag.
type TicketImpact string

const (
	TicketImpactLow      TicketImpact = "low"
	TicketImpactMedium   TicketImpact = "medium"
	TicketImpactHigh     TicketImpact = "high"
	TicketImpactCritical TicketImpact = "critical"
)

// TicketImpacts lists impacts from least to most severe.
var TicketImpacts = []TicketImpact{
	TicketImpactLow,
	TicketImpactMedium,
	TicketImpactHigh,
	TicketImpactCritical,
}

// Valid reports whether i is a known impact.
func (i TicketImpact) Valid() bool {
	for _, impact := range TicketImpacts {
		if i == impact {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                int64
	Title             string
	Description       string
	Category          string
	Impact            TicketImpact
	Status            TicketStatus
	CustomerID        int64
	AgentID           *int64
	ResolutionDetails *string
	ResolvedAt        *time.Time
	Attachments       []Attachment
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AssignedTo reports whether the ticket's agent is agentID.
func (t *Ticket) AssignedTo(agentID int64) bool {
	return t.AgentID != nil && *t.AgentID == agentID
}

// Attachment is a file uploaded with a ticket. Attachments are never
// modified after creation.
type Attachment struct {
	ID        int64
	TicketID  int64
	Filename  string
	URL       string
	CreatedAt time.Time
}

// Note is an internal staff annotation on a ticket.
type Note struct {
	ID        int64
	TicketID  int64
	AuthorID  int64
	Author    string
	Text      string
	CreatedAt time.Time
}
