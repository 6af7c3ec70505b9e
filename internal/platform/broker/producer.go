package broker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Broker topics the durable log fans into. Selection is a fixed mapping
// from the event type: notification events land on their own topic,
// everything else on the shared events topic.
const (
	TopicEvents        = "events"
	TopicNotifications = "notifications"
)

const notificationMarker = "NOTIFICATION"

// BrokerTopic maps an event type to the broker topic it is appended to.
func BrokerTopic(eventType string) string {
	if strings.Contains(strings.ToUpper(eventType), notificationMarker) {
		return TopicNotifications
	}
	return TopicEvents
}

// Producer appends serialized events to Kafka. Delivery is at-least-once
// from the publisher's perspective: WriteMessages either succeeds or the
// error is returned to the caller, never re-queued here.
type Producer struct {
	writer       *kafka.Writer
	writeTimeout time.Duration
}

// NewProducer builds a producer for the given brokers. The topic is chosen
// per message, so the writer itself stays topic-less.
func NewProducer(brokers []string, writeTimeout time.Duration) *Producer {
	if writeTimeout == 0 {
		writeTimeout = 5 * time.Second
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		writeTimeout: writeTimeout,
	}
}

// Publish appends one event envelope. Key should be the entity id when the
// event is scoped to an aggregate, otherwise the correlation id, so related
// events share a partition.
func (p *Producer) Publish(ctx context.Context, key string, value []byte, eventType string, ts time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Topic: BrokerTopic(eventType),
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "timestamp", Value: []byte(ts.UTC().Format(time.RFC3339))},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	slog.Debug("event appended to durable log",
		slog.String("topic", msg.Topic),
		slog.String("eventType", eventType),
		slog.String("key", key),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
