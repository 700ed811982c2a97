package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// publishEvent fills in ID and timestamp and dispatches. Handler failures
// are logged; they never fail the request that produced the event.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// notFound converts missing rows into a NOT_FOUND for resource.
func notFound(err error, resource string, id int64) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}

// policyError maps workflow rule violations onto API errors.
func policyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, policy.ErrStatusChangeForbidden), errors.Is(err, policy.ErrAssignForbidden):
		return apperrors.NewForbidden(err.Error())
	case errors.Is(err, policy.ErrUnknownStatus):
		return apperrors.NewValidationError(err.Error(), map[string]any{"status": "oneof"})
	case errors.Is(err, policy.ErrResolutionRequired), errors.Is(err, policy.ErrResolutionWithoutResolve):
		return apperrors.NewValidationError(err.Error(), map[string]any{"resolution_details": "required_with_resolved"})
	case errors.Is(err, policy.ErrResolvedAtRequired):
		return apperrors.NewValidationError(err.Error(), map[string]any{"resolved_at": "required_with_resolved"})
	case errors.Is(err, policy.ErrAssigneeNotAgent), errors.Is(err, policy.ErrAssigneeInactive):
		return apperrors.NewValidationError(err.Error(), map[string]any{"agent_id": "active_agent"})
	case errors.Is(err, policy.ErrAssignedTicketOpen):
		return apperrors.NewValidationError(err.Error(), map[string]any{"status": "not_open_when_assigned"})
	}
	return apperrors.MapError(err)
}

func actorID(identity domain.Identity) *int64 {
	id := identity.UserID
	return &id
}

// stringPreview shortens body to at most max runes, ending in "..." when cut.
func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
