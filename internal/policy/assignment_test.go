package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestCanAssign(t *testing.T) {
	assert.True(t, CanAssign(domain.RoleAdmin))
	assert.True(t, CanAssign(domain.RoleSuperadmin))
	assert.False(t, CanAssign(domain.RoleAgent))
	assert.False(t, CanAssign(domain.RoleClient))
}

func TestValidateAssignee(t *testing.T) {
	assert.NoError(t, ValidateAssignee(&domain.User{ID: 5, Role: domain.RoleAgent, Status: domain.UserStatusActive}))
	assert.ErrorIs(t, ValidateAssignee(&domain.User{ID: 5, Role: domain.RoleAgent, Status: domain.UserStatusInactive}), ErrAssigneeInactive)
	assert.ErrorIs(t, ValidateAssignee(&domain.User{ID: 1, Role: domain.RoleAdmin, Status: domain.UserStatusActive}), ErrAssigneeNotAgent)
	assert.ErrorIs(t, ValidateAssignee(nil), ErrAssigneeNotAgent)
}

func TestAssigningUnassignedTicketMovesToInProgress(t *testing.T) {
	ticket := &domain.Ticket{ID: 20, Status: domain.TicketStatusOpen}
	changed := ApplyAssignment(ticket, 5)

	assert.True(t, changed)
	require.NotNil(t, ticket.AgentID)
	assert.Equal(t, int64(5), *ticket.AgentID)
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
}

func TestReassigningSameAgentIsNoop(t *testing.T) {
	ticket := &domain.Ticket{ID: 20, Status: domain.TicketStatusResolved, AgentID: ptr(int64(5))}
	assert.False(t, ApplyAssignment(ticket, 5))
	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
}
