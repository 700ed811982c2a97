package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

const (
	// DefaultQueueSize bounds the number of events waiting for delivery.
	DefaultQueueSize = 256
	deliveryTimeout  = 30 * time.Second
)

// ErrQueueStopped is returned by Stop when the queue was already stopped.
var ErrQueueStopped = errors.New("event queue stopped")

// EventQueue moves slow subscribers (webhooks, Kafka) off the request
// path. Publish never blocks: it buffers the event and returns, and a
// single goroutine hands events to the subscribers in publish order.
// When the buffer is full the event is dropped and logged.
type EventQueue struct {
	bus    *events.Bus
	logger *zap.Logger
	ch     chan events.Event

	mu      sync.RWMutex
	stopped bool
	started bool
	done    chan struct{}
}

// NewEventQueue creates a queue holding up to size pending events.
func NewEventQueue(logger *zap.Logger, size int) *EventQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &EventQueue{
		bus:    events.NewInMemoryDispatcher(),
		logger: logger,
		ch:     make(chan events.Event, size),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a handler run on the queue's goroutine.
func (q *EventQueue) Subscribe(eventType events.EventType, handler events.EventHandler) {
	q.bus.Subscribe(eventType, handler)
}

// SubscribeAll registers a catch-all handler run on the queue's goroutine.
func (q *EventQueue) SubscribeAll(handler events.EventHandler) {
	q.bus.SubscribeAll(handler)
}

// Publish enqueues the event. The caller's context is not carried over
// since it usually ends with the HTTP request.
func (q *EventQueue) Publish(_ context.Context, event events.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		q.logger.Warn("event dropped after shutdown",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
		return nil
	}
	select {
	case q.ch <- event:
	default:
		q.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Int("capacity", cap(q.ch)))
	}
	return nil
}

// Start launches the delivery goroutine. Calling it twice is a no-op.
func (q *EventQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true
	go q.run()
}

// Pending reports how many events wait for delivery.
func (q *EventQueue) Pending() int {
	return len(q.ch)
}

// Stop refuses new events and waits for the buffered ones to be
// delivered, or for ctx to end.
func (q *EventQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return ErrQueueStopped
	}
	q.stopped = true
	close(q.ch)
	started := q.started
	q.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *EventQueue) run() {
	defer close(q.done)
	for event := range q.ch {
		q.deliver(event)
	}
}

func (q *EventQueue) deliver(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := q.bus.Publish(ctx, event); err != nil {
		q.logger.Warn("event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

var _ events.Dispatcher = (*EventQueue)(nil)
