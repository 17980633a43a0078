// Package queries contains read operations. They never change state and
// derive client-facing views, such as the offer countdown, from the stored
// aggregates.
package queries

import (
	"time"

	"fieldops/internal/core/application/assignment"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
)

// OrderView is the read model of an order shown to customers, agents and
// dispatchers.
type OrderView struct {
	ID           kernel.UUID
	CustomerID   kernel.UUID
	Kind         kernel.ServiceKind
	Location     kernel.Location
	Status       order.Status
	AgentID      *kernel.UUID
	AttemptCount int
	OfferedAt    *time.Time
	AcceptedAt   *time.Time
	CreatedAt    time.Time
	Countdown    order.Countdown

	// Reason explains a terminal status the customer did not choose.
	Reason string
}

// NewOrderView builds the view of o as seen at now.
func NewOrderView(o *order.Order, window time.Duration, now time.Time) OrderView {
	view := OrderView{
		ID:           o.ID(),
		CustomerID:   o.CustomerID(),
		Kind:         o.Kind(),
		Location:     o.Location(),
		Status:       o.Status(),
		AgentID:      o.AgentID(),
		AttemptCount: o.AttemptCount(),
		OfferedAt:    o.OfferedAt(),
		AcceptedAt:   o.AcceptedAt(),
		CreatedAt:    o.CreatedAt(),
		Countdown:    o.Countdown(window, now),
	}
	if o.Status() == order.Exhausted {
		view.Reason = assignment.ErrNoCandidatesAvailable.Error()
	}
	return view
}
