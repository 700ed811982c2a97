package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/service"
)

// StartNotificationWorker wires the outbound subscribers behind queue and
// starts it. The notification service must have been built with queue as
// its dispatcher. Every event published on dispatcher is copied into the
// queue, so webhook and Kafka delivery never run on the request path.
func StartNotificationWorker(dispatcher events.Dispatcher, queue *EventQueue, notificationService *service.NotificationService, forwarder *events.KafkaForwarder, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if forwarder != nil {
		forwarder.Register(queue)
		logger.Info("forwarding ticket events to kafka")
	}
	dispatcher.SubscribeAll(queue.Publish)
	queue.Start()
}
