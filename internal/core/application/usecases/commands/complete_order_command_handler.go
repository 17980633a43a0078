package commands

import (
	"context"

	"fieldops/internal/core/domain/model/order"
)

// CompleteOrderCommandHandler executes CompleteOrderCommand.
type CompleteOrderCommandHandler struct {
	lifecycle OrderLifecycle
}

// NewCompleteOrderCommandHandler creates the handler.
func NewCompleteOrderCommandHandler(lifecycle OrderLifecycle) CompleteOrderCommandHandler {
	return CompleteOrderCommandHandler{lifecycle: lifecycle}
}

// Handle moves an active order to completed and releases the agent.
func (h CompleteOrderCommandHandler) Handle(ctx context.Context, cmd CompleteOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.lifecycle.Complete(ctx, cmd.OrderID(), cmd.AgentID())
}
