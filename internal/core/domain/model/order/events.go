package order

import (
	"time"

	"fieldops/internal/core/domain/model/kernel"
)

// EventType names a step of the assignment lifecycle.
type EventType string

const (
	EventOfferMade      EventType = "offer_made"
	EventOfferDeclined  EventType = "offer_declined"
	EventOfferExpired   EventType = "offer_expired"
	EventAccepted       EventType = "accepted"
	EventServiceStarted EventType = "service_started"
	EventCompleted      EventType = "completed"
	EventExhausted      EventType = "exhausted"
	EventCancelled      EventType = "cancelled"
)

// Event is what the workflow tells notification sinks. Fields that do not
// apply to a type are left empty and omitted on the wire.
type Event struct {
	Type       EventType    `json:"type"`
	OrderID    kernel.UUID  `json:"orderId"`
	AgentID    *kernel.UUID `json:"agentId,omitempty"`
	Attempt    int          `json:"attempt,omitempty"`
	ExpiresAt  *time.Time   `json:"expiresAt,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// NewOfferMadeEvent announces a new offer to its agent.
func NewOfferMadeEvent(offer Offer, at time.Time) Event {
	expiresAt := offer.ExpiresAt
	return Event{
		Type:       EventOfferMade,
		OrderID:    offer.OrderID,
		AgentID:    &offer.AgentID,
		Attempt:    offer.Attempt,
		ExpiresAt:  &expiresAt,
		OccurredAt: at,
	}
}

// NewOfferDeclinedEvent records that agentID turned down attempt.
func NewOfferDeclinedEvent(orderID, agentID kernel.UUID, attempt int, at time.Time) Event {
	return Event{Type: EventOfferDeclined, OrderID: orderID, AgentID: &agentID, Attempt: attempt, OccurredAt: at}
}

// NewOfferExpiredEvent records that agentID let attempt run out.
func NewOfferExpiredEvent(orderID, agentID kernel.UUID, attempt int, at time.Time) Event {
	return Event{Type: EventOfferExpired, OrderID: orderID, AgentID: &agentID, Attempt: attempt, OccurredAt: at}
}

// NewAcceptedEvent confirms agentID on the order.
func NewAcceptedEvent(orderID, agentID kernel.UUID, attempt int, at time.Time) Event {
	return Event{Type: EventAccepted, OrderID: orderID, AgentID: &agentID, Attempt: attempt, OccurredAt: at}
}

// NewServiceStartedEvent marks the agent's arrival on site.
func NewServiceStartedEvent(orderID, agentID kernel.UUID, at time.Time) Event {
	return Event{Type: EventServiceStarted, OrderID: orderID, AgentID: &agentID, OccurredAt: at}
}

// NewCompletedEvent closes a fulfilled order.
func NewCompletedEvent(orderID, agentID kernel.UUID, at time.Time) Event {
	return Event{Type: EventCompleted, OrderID: orderID, AgentID: &agentID, OccurredAt: at}
}

// NewExhaustedEvent reports that nobody accepted after attempts offers.
func NewExhaustedEvent(orderID kernel.UUID, attempts int, at time.Time) Event {
	return Event{Type: EventExhausted, OrderID: orderID, Attempt: attempts, OccurredAt: at}
}

// NewCancelledEvent reports a withdrawn order.
func NewCancelledEvent(orderID kernel.UUID, at time.Time) Event {
	return Event{Type: EventCancelled, OrderID: orderID, OccurredAt: at}
}
