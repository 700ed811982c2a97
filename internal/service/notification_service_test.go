package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
)

type webhookSink struct {
	mu      sync.Mutex
	types   []string
	bodies  []map[string]any
	failing bool
}

func (s *webhookSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	s.mu.Lock()
	s.types = append(s.types, r.Header.Get("X-Helpdesk-Event"))
	s.bodies = append(s.bodies, body)
	failing := s.failing
	s.mu.Unlock()

	if failing {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func TestNotificationWebhookReceivesEveryEvent(t *testing.T) {
	sink := &webhookSink{}
	srv := httptest.NewServer(sink)
	t.Cleanup(srv.Close)

	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL})
	svc.RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		ID:       "evt-1",
		Type:     events.EventTicketAssigned,
		TicketID: 20,
		Payload:  events.TicketAssignedPayload{AgentID: 5},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		ID:       "evt-2",
		Type:     events.EventTicketStatusChanged,
		TicketID: 10,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: domain.TicketStatusInProgress,
			NewStatus: domain.TicketStatusResolved,
		},
	}))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []string{"ticket_assigned", "ticket_status_changed"}, sink.types)
	require.Len(t, sink.bodies, 2)
	assert.Equal(t, float64(20), sink.bodies[0]["ticket_id"])
	assert.Equal(t, "resolved", sink.bodies[1]["payload"].(map[string]any)["new_status"])
}

func TestNotificationWebhookFailureIsReported(t *testing.T) {
	sink := &webhookSink{failing: true}
	srv := httptest.NewServer(sink)
	t.Cleanup(srv.Close)

	svc := NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL})
	err := svc.Handle(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestNotificationWithoutWebhookIsNoop(t *testing.T) {
	svc := NewNotificationService(nil, nil, config.NotificationConfig{})
	assert.NoError(t, svc.Handle(context.Background(), events.Event{Type: events.EventTicketNoteAdded}))
}

func TestWantsEmail(t *testing.T) {
	assert.True(t, wantsEmail(events.Event{Type: events.EventTicketCreated}))
	assert.True(t, wantsEmail(events.Event{
		Type:    events.EventTicketStatusChanged,
		Payload: events.TicketStatusChangedPayload{NewStatus: domain.TicketStatusResolved},
	}))
	assert.False(t, wantsEmail(events.Event{
		Type:    events.EventTicketStatusChanged,
		Payload: events.TicketStatusChangedPayload{NewStatus: domain.TicketStatusClosed},
	}))
	assert.False(t, wantsEmail(events.Event{Type: events.EventTicketAssigned}))
}
