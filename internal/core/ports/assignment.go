package ports

import (
	"context"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
)

// CandidateAgentSource yields the next agent to offer an order to.
// Candidates come nearest first; agents in exclude are never returned.
type CandidateAgentSource interface {
	NextCandidate(ctx context.Context, o *order.Order, exclude []kernel.UUID) (kernel.UUID, bool, error)
}

// AssignmentTimer is a per-order one-shot countdown.
//
// Schedule arms a timer that calls the ExpiryHandler with (orderID, attempt)
// once d has elapsed. Cancel disarms whatever timer the order has and is a
// no-op when none is armed. Delivery is best effort; the handler re-checks
// the order before acting.
type AssignmentTimer interface {
	Schedule(ctx context.Context, orderID kernel.UUID, attempt int, d time.Duration) error
	Cancel(ctx context.Context, orderID kernel.UUID) error
}

// ExpiryHandler receives fired timers.
type ExpiryHandler interface {
	OnTimerExpired(ctx context.Context, orderID kernel.UUID, attempt int) error
}

// ExpiryHandlerFunc adapts a function to ExpiryHandler.
type ExpiryHandlerFunc func(ctx context.Context, orderID kernel.UUID, attempt int) error

// OnTimerExpired calls f.
func (f ExpiryHandlerFunc) OnTimerExpired(ctx context.Context, orderID kernel.UUID, attempt int) error {
	return f(ctx, orderID, attempt)
}

// NotificationSink receives lifecycle events. It is fire and forget:
// implementations handle their own delivery failures.
type NotificationSink interface {
	Notify(ctx context.Context, event order.Event)
}
