package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iho/gesledger/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes outbox events to a Kafka topic. Messages are keyed
// by aggregate ID so events of one request or holding stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
		},
	}
}

type eventEnvelope struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Publish writes one event and waits for the broker acknowledgement.
func (k *KafkaPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", event.ID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

func newMessage(event *domain.OutboxEvent) (kafka.Message, error) {
	value, err := json.Marshal(eventEnvelope{
		ID:            event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	return kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "event-type", Value: []byte(event.EventType)},
		},
	}, nil
}
