package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
)

func TestEventQueueDeliversInOrderAndDrainsOnStop(t *testing.T) {
	q := NewEventQueue(zap.NewNop(), 8)
	var mu sync.Mutex
	var seen []string
	q.SubscribeAll(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.ID)
		return nil
	})
	q.Start()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Publish(context.Background(), events.Event{ID: id, Type: events.EventTicketCreated}))
	}
	require.NoError(t, q.Stop(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.ErrorIs(t, q.Stop(context.Background()), ErrQueueStopped)
	assert.NoError(t, q.Publish(context.Background(), events.Event{ID: "late"}))
}

func TestEventQueueDropsWhenFull(t *testing.T) {
	q := NewEventQueue(nil, 1)
	require.NoError(t, q.Publish(context.Background(), events.Event{ID: "kept"}))
	require.NoError(t, q.Publish(context.Background(), events.Event{ID: "dropped"}))
	assert.Equal(t, 1, q.Pending())
}

func TestEventQueueSurvivesFailingHandler(t *testing.T) {
	q := NewEventQueue(zap.NewNop(), 4)
	var delivered atomic.Int32
	q.SubscribeAll(func(context.Context, events.Event) error { panic("bad payload") })
	q.SubscribeAll(func(context.Context, events.Event) error { delivered.Add(1); return nil })
	q.Start()

	require.NoError(t, q.Publish(context.Background(), events.Event{Type: events.EventTicketNoteAdded}))
	require.NoError(t, q.Publish(context.Background(), events.Event{Type: events.EventTicketAssigned}))
	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, int32(2), delivered.Load())
}

type blockingWriter struct {
	release <-chan struct{}
	written atomic.Int32
}

func (w *blockingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	select {
	case <-w.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.written.Add(int32(len(msgs)))
	return nil
}

func (w *blockingWriter) Close() error { return nil }

func TestUpdateTicketDoesNotWaitForOutboundDelivery(t *testing.T) {
	release := make(chan struct{})
	var hooks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		hooks.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	users := memory.NewUserRepository()
	tickets := memory.NewTicketRepository()
	history := memory.NewTicketHistoryRepository()
	dispatcher := events.NewInMemoryDispatcher()
	queue := NewEventQueue(zap.NewNop(), 16)
	writer := &blockingWriter{release: release}
	notifications := service.NewNotificationService(queue, zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL})
	StartNotificationWorker(dispatcher, queue, notifications, events.NewKafkaForwarder(writer, "helpdesk.events"), zap.NewNop())

	assignments := service.NewAssignmentService(service.AssignmentDependencies{
		UserRepo:    users,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	tickets.Seed(domain.Ticket{ID: 12, CustomerID: 1, Status: domain.TicketStatusClosed})
	svc := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     tickets,
		NoteRepo:       memory.NewNoteRepository(),
		AttachmentRepo: memory.NewAttachmentRepository(),
		UserRepo:       users,
		HistoryRepo:    history,
		Assignments:    assignments,
		Dispatcher:     dispatcher,
		Logger:         zap.NewNop(),
	})
	admin := &domain.User{Email: "admin@example.com", Role: domain.RoleAdmin, Status: domain.UserStatusActive}
	require.NoError(t, users.Create(context.Background(), admin))

	open := domain.TicketStatusOpen
	started := time.Now()
	ticket, err := svc.UpdateTicket(context.Background(), domain.Identity{UserID: admin.ID, Role: domain.RoleAdmin}, 12, service.TicketUpdateInput{Status: &open})
	elapsed := time.Since(started)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Less(t, elapsed, 200*time.Millisecond)
	assert.Equal(t, int32(0), hooks.Load())

	unblock()
	assert.Eventually(t, func() bool {
		return hooks.Load() > 0 && writer.written.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, queue.Stop(context.Background()))
}
