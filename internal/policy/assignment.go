package policy

import (
	"errors"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var (
	ErrAssignForbidden    = errors.New("role may not assign tickets")
	ErrAssigneeNotAgent   = errors.New("assignee is not an agent")
	ErrAssigneeInactive   = errors.New("assignee is inactive")
	ErrAssignedTicketOpen = errors.New("an assigned ticket cannot be open")
)

// CanAssign reports whether the role may assign tickets to agents.
func CanAssign(role domain.Role) bool {
	return role.IsAdmin()
}

// ValidateAssignee checks that the user can receive tickets.
func ValidateAssignee(assignee *domain.User) error {
	if assignee == nil || assignee.Role != domain.RoleAgent {
		return ErrAssigneeNotAgent
	}
	if assignee.Status != domain.UserStatusActive {
		return ErrAssigneeInactive
	}
	return nil
}

// ApplyAssignment sets the ticket's agent. A new assignment moves the
// ticket to in_progress. It reports whether the agent changed.
func ApplyAssignment(ticket *domain.Ticket, agentID int64) bool {
	if ticket.AssignedTo(agentID) {
		return false
	}
	id := agentID
	ticket.AgentID = &id
	ticket.Status = domain.TicketStatusInProgress
	return true
}
