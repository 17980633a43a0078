package http

import (
	"time"

	"fieldops/internal/core/application/usecases/queries"
	"fieldops/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// Location is a geographic point on the wire.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewAgent is the body of POST /api/v1/agents.
type NewAgent struct {
	Name     string   `json:"name"`
	SpeedKmh int      `json:"speedKmh"`
	Location Location `json:"location"`
	Kinds    []string `json:"kinds"`
}

// Agent is one entry of GET /api/v1/agents.
type Agent struct {
	Id       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	SpeedKmh int       `json:"speedKmh"`
	Location Location  `json:"location"`
	Kinds    []string  `json:"kinds"`
}

// NewOrder is the body of POST /api/v1/orders.
type NewOrder struct {
	CustomerId uuid.UUID `json:"customerId"`
	Kind       string    `json:"kind"`
	Location   Location  `json:"location"`
}

// OrderCreated is the response of POST /api/v1/orders.
type OrderCreated struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
	Reason string    `json:"reason,omitempty"`
}

// AgentAction is the body of the accept, decline, start and complete calls.
type AgentAction struct {
	AgentId uuid.UUID `json:"agentId"`
}

// Countdown is the remaining time of the live offer.
type Countdown struct {
	WindowSeconds    float64    `json:"windowSeconds"`
	RemainingSeconds float64    `json:"remainingSeconds"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	Urgency          string     `json:"urgency"`
}

// Order is the API representation of an order.
type Order struct {
	Id           uuid.UUID  `json:"id"`
	CustomerId   uuid.UUID  `json:"customerId"`
	Kind         string     `json:"kind"`
	Location     Location   `json:"location"`
	Status       string     `json:"status"`
	AgentId      *uuid.UUID `json:"agentId,omitempty"`
	AttemptCount int        `json:"attemptCount"`
	OfferedAt    *time.Time `json:"offeredAt,omitempty"`
	AcceptedAt   *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	Countdown    Countdown  `json:"countdown"`
	Reason       string     `json:"reason,omitempty"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func toLocation(l kernel.Location) Location {
	return Location{
		Latitude:  l.Latitude(),
		Longitude: l.Longitude(),
	}
}

func toOrder(v queries.OrderView) Order {
	response := Order{
		Id:           v.ID.Bytes(),
		CustomerId:   v.CustomerID.Bytes(),
		Kind:         v.Kind.String(),
		Location:     toLocation(v.Location),
		Status:       v.Status.String(),
		AttemptCount: v.AttemptCount,
		OfferedAt:    v.OfferedAt,
		AcceptedAt:   v.AcceptedAt,
		CreatedAt:    v.CreatedAt,
		Countdown: Countdown{
			WindowSeconds:    v.Countdown.Window.Seconds(),
			RemainingSeconds: v.Countdown.Remaining.Seconds(),
			ExpiresAt:        v.Countdown.ExpiresAt,
			Urgency:          string(v.Countdown.Urgency),
		},
		Reason: v.Reason,
	}
	if v.AgentID != nil {
		agentID := v.AgentID.Bytes()
		response.AgentId = &agentID
	}
	return response
}

func toAgent(a queries.GetAllAgentsQueryResponse) Agent {
	kinds := make([]string, len(a.Kinds))
	for i, kind := range a.Kinds {
		kinds[i] = kind.String()
	}
	return Agent{
		Id:       a.ID.Bytes(),
		Name:     a.Name,
		SpeedKmh: a.SpeedKmh,
		Location: toLocation(a.Location),
		Kinds:    kinds,
	}
}
