// Package kafka publishes assignment lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"fieldops/internal/core/domain/model/order"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher is a NotificationSink writing each event as JSON keyed by
// order id, so one order's events stay on one partition in order.
type EventPublisher struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewEventPublisher returns a publisher writing through writer.
func NewEventPublisher(writer MessageWriter, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{
		writer: writer,
		logger: logger.With("component", "kafka_event_publisher"),
	}
}

// NewAsyncWriter returns a writer for topic that batches in the background
// and reports delivery failures through logger.
func NewAsyncWriter(brokers []string, topic string, logger *slog.Logger) *kafka.Writer {
	logger = logger.With("component", "kafka_writer", "topic", topic)

	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to deliver assignment events", "count", len(messages), "error", err)
			}
		},
	}
}

// Notify implements ports.NotificationSink.
func (p *EventPublisher) Notify(ctx context.Context, event order.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to marshal event", "order_id", event.OrderID, "type", event.Type, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish event", "order_id", event.OrderID, "type", event.Type, "error", err)
	}
}

// Close flushes pending messages and closes the writer.
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
