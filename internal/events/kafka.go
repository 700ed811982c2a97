package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the forwarder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder republishes every dispatched event to a Kafka topic,
// keyed by ticket ID so one ticket's events stay ordered.
type KafkaForwarder struct {
	writer MessageWriter
	topic  string
}

// WriterBatchTimeout caps how long a partial batch waits before it is
// flushed. kafka-go defaults to one second.
const WriterBatchTimeout = 10 * time.Millisecond

// NewKafkaWriter builds a writer for the given brokers.
func NewKafkaWriter(brokers []string) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka forwarder requires at least one broker")
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           WriterBatchTimeout,
		AllowAutoTopicCreation: true,
	}, nil
}

// NewKafkaForwarder creates a forwarder writing to topic.
func NewKafkaForwarder(writer MessageWriter, topic string) *KafkaForwarder {
	return &KafkaForwarder{writer: writer, topic: topic}
}

// Register subscribes the forwarder to every event.
func (f *KafkaForwarder) Register(dispatcher Dispatcher) {
	dispatcher.SubscribeAll(f.Forward)
}

// Forward writes a single event.
func (f *KafkaForwarder) Forward(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	return f.writer.WriteMessages(ctx, kafka.Message{
		Topic: f.topic,
		Key:   []byte(strconv.FormatInt(event.TicketID, 10)),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

// Close flushes and closes the writer.
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
