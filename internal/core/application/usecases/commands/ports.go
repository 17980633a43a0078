// Package commands contains business operations that modify system state.
// Every command is built through a validating constructor and executed by
// its handler; handlers delegate workflow transitions to the assignment
// core and never mutate orders directly.
package commands

import (
	"context"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
)

type (
	// AssignmentStarter kicks off the offer cycle of a created order.
	AssignmentStarter interface {
		StartAssignment(ctx context.Context, orderID kernel.UUID) (order.Status, error)
	}

	// OfferResponder records an agent's answer to an offer.
	OfferResponder interface {
		Accept(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error)
		Decline(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error)
	}

	// OrderLifecycle moves an order outside of the offer cycle.
	OrderLifecycle interface {
		Cancel(ctx context.Context, orderID kernel.UUID) (*order.Order, error)
		StartService(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error)
		Complete(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error)
	}
)
