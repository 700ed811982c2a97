package client

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
)

// User is an account as returned by the API.
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	Department    string `json:"department,omitempty"`
	Position      string `json:"position,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// CanonicalRole resolves the account's role, falling back to client.
func (u User) CanonicalRole() domain.Role {
	return policy.NormalizeRole(map[string]any{"role": u.Role})
}

// Session is the persisted login state.
type Session struct {
	User          *User     `json:"user"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
	Authenticated bool      `json:"isAuthenticated"`
}

// Complete reports whether the session can be used for requests.
func (s *Session) Complete() bool {
	return s != nil && s.Authenticated && s.Token != "" && s.User != nil && s.User.ID > 0
}

// Identity converts the session into a policy identity.
func (s *Session) Identity() domain.Identity {
	if s == nil || s.User == nil {
		return domain.Identity{}
	}
	return domain.Identity{UserID: s.User.ID, Role: s.User.CanonicalRole()}
}

// Attachment metadata.
type Attachment struct {
	ID       int64  `json:"id,omitempty"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Ticket as shown to the caller.
type Ticket struct {
	ID                int64        `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Category          string       `json:"category"`
	Impact            string       `json:"impact"`
	Status            string       `json:"status"`
	CustomerID        int64        `json:"customer_id"`
	AgentID           *int64       `json:"agent_id"`
	ResolutionDetails *string      `json:"resolution_details"`
	ResolvedAt        *time.Time   `json:"resolved_at"`
	Attachments       []Attachment `json:"attachments,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NewTicket is the create payload.
type NewTicket struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Impact      string       `json:"impact"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// TicketUpdate is the PUT body. Nil fields are omitted.
type TicketUpdate struct {
	Status            *string    `json:"status,omitempty"`
	AgentID           *int64     `json:"agent_id,omitempty"`
	ResolutionDetails *string    `json:"resolution_details,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// Note is an internal staff note.
type Note struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is one audit record.
type HistoryEntry struct {
	ID         int64          `json:"id"`
	ChangeType string         `json:"change_type"`
	ActorID    *int64         `json:"actor_id"`
	OldValue   map[string]any `json:"old_value"`
	NewValue   map[string]any `json:"new_value"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TicketOptions lists form choices.
type TicketOptions struct {
	Categories []string `json:"categories"`
	Impacts    []string `json:"impacts"`
	Statuses   []string `json:"statuses"`
}

// NewUser is the admin create payload. Role may be any shape the server
// resolves: a name, synonym or numeric code.
type NewUser struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name,omitempty"`
	Role       any    `json:"role,omitempty"`
	Status     string `json:"status,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
}

func (t *Ticket) domainTicket() domain.Ticket {
	return domain.Ticket{
		ID:         t.ID,
		Status:     domain.TicketStatus(t.Status),
		CustomerID: t.CustomerID,
		AgentID:    t.AgentID,
	}
}

// FilterVisible drops tickets the session may not see. The server
// already scopes results; this guards against a misbehaving backend.
func FilterVisible(sess *Session, tickets []Ticket) []Ticket {
	id := sess.Identity()
	visible := make([]Ticket, 0, len(tickets))
	for i := range tickets {
		dt := tickets[i].domainTicket()
		if policy.CanView(id, &dt) {
			visible = append(visible, tickets[i])
		}
	}
	return visible
}
