package commands

import (
	"context"

	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/core/ports"
	"fieldops/internal/pkg/clock"
)

// CreateOrderCommandHandler stores a new order and starts its assignment.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(store, coordinator, clock.System{})
//	status, err := handler.Handle(ctx, cmd)
//	// status is offered when an agent was found right away
type CreateOrderCommandHandler struct {
	store   ports.OrderStore
	starter AssignmentStarter
	clock   clock.Clock
}

// NewCreateOrderCommandHandler creates a handler for order creation.
func NewCreateOrderCommandHandler(
	store ports.OrderStore,
	starter AssignmentStarter,
	clk clock.Clock,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		store:   store,
		starter: starter,
		clock:   clk,
	}
}

// Handle persists the order in created status, then tries to start its
// assignment. A failed start leaves the order created; the assignment job
// retries it.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (order.Status, error) {
	if err := cmd.Validate(); err != nil {
		return order.Unknown, err
	}

	o, err := order.NewOrder(cmd.OrderID(), cmd.CustomerID(), cmd.Kind(), cmd.Location(), h.clock.Now())
	if err != nil {
		return order.Unknown, err
	}

	if err = h.store.Add(ctx, o); err != nil {
		return order.Unknown, err
	}

	status, err := h.starter.StartAssignment(ctx, o.ID())
	if err != nil {
		return order.Created, nil //nolint:nilerr // retried by the assignment job
	}
	return status, nil
}
