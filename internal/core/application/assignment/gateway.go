package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/core/ports"
	"fieldops/internal/pkg/clock"
)

// Decliner hands a declined offer back to the offer cycle.
type Decliner interface {
	OnDeclined(ctx context.Context, orderID, agentID kernel.UUID, attempt int) (*order.Order, error)
}

// Gateway is where an agent's answer to an offer becomes a state
// transition. At most one agent is ever confirmed per order: Accept is a
// single compare-and-swap on (status, agent), so of two concurrent calls
// exactly one observes the precondition.
type Gateway struct {
	store    ports.OrderStore
	decliner Decliner
	timer    ports.AssignmentTimer
	sink     ports.NotificationSink
	clock    clock.Clock
	logger   *slog.Logger
}

// NewGateway wires a Gateway.
func NewGateway(
	store ports.OrderStore,
	decliner Decliner,
	timer ports.AssignmentTimer,
	sink ports.NotificationSink,
	clk clock.Clock,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		store:    store,
		decliner: decliner,
		timer:    timer,
		sink:     sink,
		clock:    clk,
		logger:   logger.With("component", "acceptance_gateway"),
	}
}

// Accept confirms agentID on the order it currently holds an offer for.
// Returns ErrStaleOffer when the offer expired, was reassigned or the order
// was decided or cancelled in the meantime. Callers must not retry it.
func (g *Gateway) Accept(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error) {
	now := g.clock.Now()
	ok, updated, err := g.store.ConditionalUpdate(ctx, orderID,
		order.InStatus(order.Offered).WithAgent(agentID), order.AcceptChange(agentID, now))
	if err != nil {
		return nil, fmt.Errorf("accept order %s: %w", orderID, err)
	}
	if !ok {
		g.logger.DebugContext(ctx, "Stale accept", "order_id", orderID, "agent_id", agentID, "status", updated.Status())
		return updated, ErrStaleOffer
	}

	if err = g.timer.Cancel(ctx, orderID); err != nil {
		// the timer fires into a non-offered order and is discarded
		g.logger.WarnContext(ctx, "Failed to cancel timer", "order_id", orderID, "error", err)
	}

	g.sink.Notify(ctx, order.NewAcceptedEvent(orderID, agentID, updated.AttemptCount(), now))
	g.logger.InfoContext(ctx, "Offer accepted",
		"order_id", orderID, "agent_id", agentID, "attempt", updated.AttemptCount())
	return updated, nil
}

// Decline turns down the offer agentID holds and moves the order on
// immediately. Returns ErrStaleOffer when agentID holds no live offer for
// the order, which callers treat as an idempotent no-op.
func (g *Gateway) Decline(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error) {
	o, err := g.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.Satisfies(order.InStatus(order.Offered).WithAgent(agentID)) {
		g.logger.DebugContext(ctx, "Stale decline", "order_id", orderID, "agent_id", agentID, "status", o.Status())
		return o, ErrStaleOffer
	}

	return g.decliner.OnDeclined(ctx, orderID, agentID, o.AttemptCount())
}
