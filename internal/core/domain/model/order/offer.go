package order

import (
	"time"

	"fieldops/internal/core/domain/model/kernel"
)

// Offer is one agent's time-bounded chance to accept an order. It is never
// stored on its own: the order's agent, offeredAt and attempt counter are
// its durable projection.
type Offer struct {
	OrderID   kernel.UUID
	AgentID   kernel.UUID
	Attempt   int
	ExpiresAt time.Time
}

// IsExpired reports whether the window has elapsed at now.
func (o Offer) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
