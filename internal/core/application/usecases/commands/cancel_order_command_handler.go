package commands

import (
	"context"

	"fieldops/internal/core/domain/model/order"
)

// CancelOrderCommandHandler executes CancelOrderCommand.
type CancelOrderCommandHandler struct {
	lifecycle OrderLifecycle
}

// NewCancelOrderCommandHandler creates the handler.
func NewCancelOrderCommandHandler(lifecycle OrderLifecycle) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{lifecycle: lifecycle}
}

// Handle cancels the order from any non-terminal status, disarming its
// timer and releasing its agent. A finished order yields
// assignment.ErrStaleOffer.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.lifecycle.Cancel(ctx, cmd.OrderID())
}
