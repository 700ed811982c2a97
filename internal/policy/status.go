package policy

import (
	"errors"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var (
	ErrStatusChangeForbidden    = errors.New("role may not change ticket status")
	ErrUnknownStatus            = errors.New("unknown ticket status")
	ErrResolutionRequired       = errors.New("resolving a ticket requires resolution details")
	ErrResolvedAtRequired       = errors.New("resolving a ticket requires resolved_at")
	ErrResolutionWithoutResolve = errors.New("resolution details may only be set when resolving")
)

// StatusChange is a requested status update. ResolutionDetails and
// ResolvedAt are only meaningful when Status is resolved.
type StatusChange struct {
	Status            domain.TicketStatus
	ResolutionDetails *string
	ResolvedAt        *time.Time
}

// CanChangeStatus reports whether the role may change ticket status.
func CanChangeStatus(role domain.Role) bool {
	return role.IsStaff()
}

// RequiresResolution reports whether moving to status needs the
// dedicated resolution step.
func RequiresResolution(status domain.TicketStatus) bool {
	return status == domain.TicketStatusResolved
}

// ValidateStatusChange checks a change against the transition rules.
// Any status may follow any other. An empty resolution text is accepted
// as long as it is supplied.
func ValidateStatusChange(role domain.Role, change StatusChange) error {
	if !CanChangeStatus(role) {
		return ErrStatusChangeForbidden
	}
	if !change.Status.Valid() {
		return ErrUnknownStatus
	}
	if !RequiresResolution(change.Status) {
		if change.ResolutionDetails != nil {
			return ErrResolutionWithoutResolve
		}
		return nil
	}
	if change.ResolutionDetails == nil {
		return ErrResolutionRequired
	}
	if change.ResolvedAt == nil || change.ResolvedAt.IsZero() {
		return ErrResolvedAtRequired
	}
	return nil
}

// ApplyStatusChange writes a validated change onto the ticket and
// returns the previous status.
func ApplyStatusChange(ticket *domain.Ticket, change StatusChange) domain.TicketStatus {
	old := ticket.Status
	ticket.Status = change.Status
	if RequiresResolution(change.Status) {
		details := *change.ResolutionDetails
		resolvedAt := change.ResolvedAt.UTC()
		ticket.ResolutionDetails = &details
		ticket.ResolvedAt = &resolvedAt
	}
	return old
}

// NewResolution builds the change sent by the resolve step.
func NewResolution(details string, at time.Time) StatusChange {
	at = at.UTC()
	return StatusChange{
		Status:            domain.TicketStatusResolved,
		ResolutionDetails: &details,
		ResolvedAt:        &at,
	}
}

// DisplayStatus returns the status a role is shown. Clients see a
// resolved ticket as still in progress; nothing else is masked.
func DisplayStatus(role domain.Role, status domain.TicketStatus) domain.TicketStatus {
	if role == domain.RoleClient && status == domain.TicketStatusResolved {
		return domain.TicketStatusInProgress
	}
	return status
}
