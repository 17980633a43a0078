// Package notify combines notification sinks and provides a logging one.
package notify

import (
	"context"
	"log/slog"

	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/core/ports"
)

// Fanout delivers every event to each of its sinks in order.
type Fanout struct {
	sinks []ports.NotificationSink
}

// NewFanout returns a sink delivering to sinks. Nil entries are skipped.
func NewFanout(sinks ...ports.NotificationSink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Notify implements ports.NotificationSink.
func (f *Fanout) Notify(ctx context.Context, event order.Event) {
	for _, s := range f.sinks {
		s.Notify(ctx, event)
	}
}

// LogSink writes every event to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging through logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "event_log")}
}

// Notify implements ports.NotificationSink.
func (s *LogSink) Notify(ctx context.Context, event order.Event) {
	attrs := []any{"type", event.Type, "order_id", event.OrderID}
	if event.AgentID != nil {
		attrs = append(attrs, "agent_id", *event.AgentID)
	}
	if event.Attempt > 0 {
		attrs = append(attrs, "attempt", event.Attempt)
	}
	if event.ExpiresAt != nil {
		attrs = append(attrs, "expires_at", *event.ExpiresAt)
	}
	s.logger.InfoContext(ctx, "Assignment event", attrs...)
}
