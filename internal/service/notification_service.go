package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
)

const defaultWebhookTimeout = 5 * time.Second

// NotificationService reacts to ticket events. In the server it is
// subscribed to the outbound worker queue, never the request-path bus.
// Every event is POSTed as
// JSON to the configured webhook; ticket creation and resolution also
// produce a customer email, which is logged since no mail transport is
// configured.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	timeout    time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.WebhookTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		timeout:    timeout,
	}
}

// RegisterHandlers subscribes to every ticket event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.SubscribeAll(n.Handle)
}

// Handle delivers notifications for a single event.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	n.logger.Debug("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
		zap.Int64("actor_id", event.Actor.UserID))

	if wantsEmail(event) {
		n.queueEmail(event)
	}
	return n.postWebhook(ctx, event)
}

func wantsEmail(event events.Event) bool {
	switch event.Type {
	case events.EventTicketCreated:
		return true
	case events.EventTicketStatusChanged:
		payload, ok := event.Payload.(events.TicketStatusChangedPayload)
		return ok && payload.NewStatus == domain.TicketStatusResolved
	}
	return false
}

func (n *NotificationService) queueEmail(event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Info("customer email queued",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID))
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("webhook %s: %w", event.Type, context.DeadlineExceeded)
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.SetRequestURI(url)
	agent.Set("X-Helpdesk-Event", string(event.Type))
	agent.Set("X-Helpdesk-Event-ID", event.ID)
	agent.JSON(event)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("webhook %s: %w", event.Type, err)
	}

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("webhook %s: %w", event.Type, errs[0])
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("webhook %s: unexpected status %d", event.Type, code)
	}
	n.logger.Debug("webhook delivered", zap.String("event_type", string(event.Type)), zap.Int("status", code))
	return nil
}
