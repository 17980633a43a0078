package commands

import (
	"context"

	"fieldops/internal/core/domain/model/order"
)

// StartServiceCommandHandler executes StartServiceCommand.
type StartServiceCommandHandler struct {
	lifecycle OrderLifecycle
}

// NewStartServiceCommandHandler creates the handler.
func NewStartServiceCommandHandler(lifecycle OrderLifecycle) StartServiceCommandHandler {
	return StartServiceCommandHandler{lifecycle: lifecycle}
}

// Handle moves an accepted order to active.
func (h StartServiceCommandHandler) Handle(ctx context.Context, cmd StartServiceCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.lifecycle.StartService(ctx, cmd.OrderID(), cmd.AgentID())
}
