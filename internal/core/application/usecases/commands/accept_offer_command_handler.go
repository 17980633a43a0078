package commands

import (
	"context"

	"fieldops/internal/core/domain/model/order"
)

// AcceptOfferCommandHandler executes AcceptOfferCommand.
type AcceptOfferCommandHandler struct {
	responder OfferResponder
}

// NewAcceptOfferCommandHandler creates the handler.
func NewAcceptOfferCommandHandler(responder OfferResponder) AcceptOfferCommandHandler {
	return AcceptOfferCommandHandler{responder: responder}
}

// Handle confirms the agent. It returns assignment.ErrStaleOffer when the
// offer expired, moved to another agent or was already decided.
func (h AcceptOfferCommandHandler) Handle(ctx context.Context, cmd AcceptOfferCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.responder.Accept(ctx, cmd.OrderID(), cmd.AgentID())
}
