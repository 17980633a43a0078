// Package kafka drives the assignment workflow from order intake messages.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AssignmentStarter starts the assignment workflow of a created order.
type AssignmentStarter interface {
	StartAssignment(ctx context.Context, orderID kernel.UUID) (order.Status, error)
}

// OrderCreatedMessage is the intake payload.
type OrderCreatedMessage struct {
	OrderID string `json:"orderId"`
}

// OrderCreatedConsumer starts assignment for every order-created message.
//
// Offsets are committed after each message whatever the outcome: malformed
// payloads would never succeed, and a created order whose start failed is
// picked up again by the assignment job.
type OrderCreatedConsumer struct {
	reader     MessageReader
	starter    AssignmentStarter
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewOrderCreatedConsumer returns a consumer reading from reader.
func NewOrderCreatedConsumer(reader MessageReader, starter AssignmentStarter, logger *slog.Logger) *OrderCreatedConsumer {
	return &OrderCreatedConsumer{
		reader:     reader,
		starter:    starter,
		retryDelay: time.Second,
		logger:     logger.With("component", "order_created_consumer"),
	}
}

// NewReader returns a consumer-group reader for topic.
func NewReader(brokers []string, groupID, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
}

// Run consumes until ctx is cancelled, then closes the reader.
func (c *OrderCreatedConsumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.ErrorContext(ctx, "Failed to close reader", "error", err)
		}
	}()

	c.logger.InfoContext(ctx, "Order created consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.InfoContext(ctx, "Order created consumer stopped")
				return nil
			}
			c.logger.ErrorContext(ctx, "Failed to fetch message", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.ErrorContext(ctx, "Failed to commit message", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *OrderCreatedConsumer) process(ctx context.Context, msg kafka.Message) {
	orderID, err := decode(msg.Value)
	if err != nil {
		c.logger.WarnContext(ctx, "Skipping malformed message", "offset", msg.Offset, "error", err)
		return
	}

	status, err := c.starter.StartAssignment(ctx, orderID)
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "Assignment started", "order_id", orderID, "status", status)
	case errors.Is(err, errs.ErrObjectNotFound):
		c.logger.WarnContext(ctx, "Skipping message for unknown order", "order_id", orderID)
	default:
		c.logger.ErrorContext(ctx, "Failed to start assignment", "order_id", orderID, "error", err)
	}
}

func decode(payload []byte) (kernel.UUID, error) {
	var m OrderCreatedMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return kernel.UUID{}, fmt.Errorf("decode order created message: %w", err)
	}
	if m.OrderID == "" {
		return kernel.UUID{}, errs.NewValueIsRequiredError("orderId")
	}
	return kernel.UUIDFromString(m.OrderID)
}
