package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// TicketScope is the storage-level filter an identity is confined to.
// A nil CustomerID and AgentID with All=false matches nothing.
type TicketScope struct {
	All        bool
	CustomerID *int64
	AgentID    *int64
}

// ScopeFor returns the ticket scope for an identity.
func ScopeFor(id domain.Identity) TicketScope {
	userID := id.UserID
	switch id.Role {
	case domain.RoleAdmin, domain.RoleSuperadmin:
		return TicketScope{All: true}
	case domain.RoleAgent:
		return TicketScope{AgentID: &userID}
	case domain.RoleClient:
		return TicketScope{CustomerID: &userID}
	}
	return TicketScope{}
}

// CanView reports whether the identity may read the ticket.
func CanView(id domain.Identity, ticket *domain.Ticket) bool {
	if ticket == nil {
		return false
	}
	switch id.Role {
	case domain.RoleAdmin, domain.RoleSuperadmin:
		return true
	case domain.RoleAgent:
		return ticket.AssignedTo(id.UserID)
	case domain.RoleClient:
		return ticket.CustomerID == id.UserID
	}
	return false
}

// FilterVisible returns the subset of tickets the identity may read,
// preserving order.
func FilterVisible(id domain.Identity, tickets []domain.Ticket) []domain.Ticket {
	visible := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if CanView(id, &tickets[i]) {
			visible = append(visible, tickets[i])
		}
	}
	return visible
}

// CanReadNotes reports whether the role may see internal notes.
func CanReadNotes(role domain.Role) bool {
	return role.IsStaff()
}
