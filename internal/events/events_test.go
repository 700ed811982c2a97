package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls int
	boom := errors.New("boom")
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { calls++; return boom })
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { calls++; return nil })
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error { calls += 10; return nil })

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDispatcherRecoversPanicsAndReachesCatchAll(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []EventType
	d.Subscribe(EventTicketNoteAdded, func(context.Context, Event) error { panic("nil note") })
	d.SubscribeAll(func(_ context.Context, e Event) error { seen = append(seen, e.Type); return nil })

	err := d.Publish(context.Background(), Event{Type: EventTicketNoteAdded})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked: nil note")

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, []EventType{EventTicketNoteAdded, EventTicketCreated}, seen)
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaForwarder(t *testing.T) {
	d := NewInMemoryDispatcher()
	w := &fakeWriter{}
	NewKafkaForwarder(w, "helpdesk.events").Register(d)

	event := Event{
		ID:        "e1",
		Type:      EventTicketAssigned,
		TicketID:  20,
		Timestamp: time.Unix(100, 0).UTC(),
		Payload:   TicketAssignedPayload{AgentID: 5},
	}
	require.NoError(t, d.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "helpdesk.events", msg.Topic)
	assert.Equal(t, "20", string(msg.Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "ticket_assigned", decoded["type"])
	assert.Equal(t, float64(5), decoded["payload"].(map[string]any)["agent_id"])
}

func TestNewKafkaWriterRequiresBrokers(t *testing.T) {
	_, err := NewKafkaWriter(nil)
	assert.Error(t, err)
}

func TestNewKafkaWriterFlushesQuickly(t *testing.T) {
	w, err := NewKafkaWriter([]string{"localhost:9092"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}
