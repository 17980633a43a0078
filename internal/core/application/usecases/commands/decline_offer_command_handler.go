package commands

import (
	"context"

	"fieldops/internal/core/domain/model/order"
)

// DeclineOfferCommandHandler executes DeclineOfferCommand.
type DeclineOfferCommandHandler struct {
	responder OfferResponder
}

// NewDeclineOfferCommandHandler creates the handler.
func NewDeclineOfferCommandHandler(responder OfferResponder) DeclineOfferCommandHandler {
	return DeclineOfferCommandHandler{responder: responder}
}

// Handle releases the agent and moves the order to the next candidate, or
// exhausts it. Declining an offer the agent no longer holds returns
// assignment.ErrStaleOffer without changing anything.
func (h DeclineOfferCommandHandler) Handle(ctx context.Context, cmd DeclineOfferCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.responder.Decline(ctx, cmd.OrderID(), cmd.AgentID())
}
