package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AssignmentService validates assignees and records assignment changes.
// The ticket write itself happens in TicketService so that an assignment
// and its status change are persisted as one update.
type AssignmentService struct {
	users       repository.UserRepository
	historyRepo repository.TicketHistoryRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	UserRepo    repository.UserRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		users:       deps.UserRepo,
		historyRepo: deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// ResolveAssignee checks that actor may assign and that agentID is an
// active agent.
func (s *AssignmentService) ResolveAssignee(ctx context.Context, actor domain.Identity, agentID int64) (*domain.User, error) {
	if !policy.CanAssign(actor.Role) {
		return nil, policyError(policy.ErrAssignForbidden)
	}
	assignee, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, policyError(policy.ErrAssigneeNotAgent)
		}
		return nil, apperrors.MapError(err)
	}
	if err := policy.ValidateAssignee(assignee); err != nil {
		return nil, policyError(err)
	}
	return assignee, nil
}

// ListAssignableAgents returns active agents for assignment pickers.
func (s *AssignmentService) ListAssignableAgents(ctx context.Context, actor domain.Identity) ([]domain.User, error) {
	if !policy.CanAssign(actor.Role) {
		return nil, policyError(policy.ErrAssignForbidden)
	}
	role := domain.RoleAgent
	status := domain.UserStatusActive
	agents, err := s.users.List(ctx, repository.UserFilter{Role: &role, Status: &status, Limit: 1000})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// RecordAssignment writes the audit entry and emits the assigned event
// for a persisted assignment.
func (s *AssignmentService) RecordAssignment(ctx context.Context, actor domain.Identity, ticketID int64, oldAgent *int64, newAgent int64) error {
	if err := s.recordAssigneeChange(ctx, actor, ticketID, oldAgent, newAgent); err != nil {
		return apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticketID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketAssignedPayload{
			PreviousAgentID: oldAgent,
			AgentID:         newAgent,
		},
	})
	return nil
}

func (s *AssignmentService) recordAssigneeChange(ctx context.Context, actor domain.Identity, ticketID int64, oldAgent *int64, newAgent int64) error {
	if s.historyRepo == nil {
		return nil
	}
	return s.historyRepo.Create(ctx, &domain.TicketHistory{
		TicketID:   ticketID,
		ActorID:    actorID(actor),
		ChangeType: domain.ChangeTypeAssignee,
		OldValue: map[string]any{
			"agent_id": oldAgent,
		},
		NewValue: map[string]any{
			"agent_id": newAgent,
		},
	})
}
