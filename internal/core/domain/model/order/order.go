package order

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/errs"
	"fieldops/internal/pkg/guard"
)

// ErrOrderIsNotConstructed is returned when an Order instance was not created
// through NewOrder or RestoreOrder.
var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

// Assignment is the durable projection of the offer cycle on an order.
//
// AgentID is set exactly while the order is offered, accepted or active.
// OfferedAt is the instant of the most recent offer and is set only while
// the order is offered. AttemptCount grows by one per offer and
// OfferedAgents lists every agent offered the order, oldest first.
type Assignment struct {
	AgentID       *kernel.UUID
	OfferedAt     *time.Time
	AcceptedAt    *time.Time
	AttemptCount  int
	OfferedAgents []kernel.UUID
}

// Order is a customer's request for fuel delivery or a mechanic. It is the
// aggregate root of the assignment workflow.
//
// Order follows these invariants:
//   - Must have valid order and customer identifiers
//   - Must have a known service kind and a valid location
//   - An agent is attached exactly while the status is Offered, Accepted or Active
//   - OfferedAt is set exactly while the status is Offered
//   - AttemptCount equals the number of agents in OfferedAgents
//
// Orders are never mutated in memory by the workflow itself. The
// coordinator describes a transition as a Condition plus a Change and the
// OrderStore applies both atomically.
type Order struct {
	id         kernel.UUID
	customerID kernel.UUID
	kind       kernel.ServiceKind
	location   kernel.Location
	status     Status
	assignment Assignment
	createdAt  time.Time
	guard      guard.ConstructorGuard
}

// NewOrder creates an order in Created status with no attempts.
//
// Example:
//
//	loc, _ := kernel.NewLocation(52.52, 13.405)
//	o, err := order.NewOrder(kernel.NewUUID(), customerID, kernel.FuelDelivery, loc, time.Now())
func NewOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	kind kernel.ServiceKind,
	location kernel.Location,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		status: Created,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setKind(kind),
		o.setLocation(location),
		o.setCreatedAt(createdAt),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder reconstructs an Order from persistent storage and re-checks
// every invariant, so a corrupted row never enters the domain.
func RestoreOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	kind kernel.ServiceKind,
	location kernel.Location,
	status Status,
	assignment Assignment,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setKind(kind),
		o.setLocation(location),
		o.setCreatedAt(createdAt),
		o.setStatusAndAssignment(status, assignment),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order was built by NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the customer who placed the order.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// Kind returns the requested service.
func (o *Order) Kind() kernel.ServiceKind {
	return o.kind
}

// Location returns where the service is needed.
func (o *Order) Location() kernel.Location {
	return o.location
}

// Status returns the current status of the order.
func (o *Order) Status() Status {
	return o.status
}

// CreatedAt returns the intake instant.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// AgentID returns the agent holding the order, or nil.
func (o *Order) AgentID() *kernel.UUID {
	return cloneUUID(o.assignment.AgentID)
}

// OfferedAt returns the instant of the current offer, or nil.
func (o *Order) OfferedAt() *time.Time {
	return cloneTime(o.assignment.OfferedAt)
}

// AcceptedAt returns when the order was accepted, or nil.
func (o *Order) AcceptedAt() *time.Time {
	return cloneTime(o.assignment.AcceptedAt)
}

// AttemptCount returns the number of offers made so far.
func (o *Order) AttemptCount() int {
	return o.assignment.AttemptCount
}

// OfferedAgents returns every agent offered the order, oldest first.
func (o *Order) OfferedAgents() []kernel.UUID {
	return slices.Clone(o.assignment.OfferedAgents)
}

// Assignment returns a copy of the assignment projection.
func (o *Order) Assignment() Assignment {
	return Assignment{
		AgentID:       cloneUUID(o.assignment.AgentID),
		OfferedAt:     cloneTime(o.assignment.OfferedAt),
		AcceptedAt:    cloneTime(o.assignment.AcceptedAt),
		AttemptCount:  o.assignment.AttemptCount,
		OfferedAgents: slices.Clone(o.assignment.OfferedAgents),
	}
}

// Clone returns an independent copy. Stores hand out clones so callers can
// never mutate stored state.
func (o *Order) Clone() *Order {
	c := *o
	c.assignment = o.Assignment()
	return &c
}

// CurrentOffer returns the live offer, if the order is offered.
func (o *Order) CurrentOffer(window time.Duration) (Offer, bool) {
	if o.status != Offered || o.assignment.AgentID == nil || o.assignment.OfferedAt == nil {
		return Offer{}, false
	}
	return Offer{
		OrderID:   o.id,
		AgentID:   *o.assignment.AgentID,
		Attempt:   o.assignment.AttemptCount,
		ExpiresAt: o.assignment.OfferedAt.Add(window),
	}, true
}

// Countdown derives the client-facing countdown at now.
func (o *Order) Countdown(window time.Duration, now time.Time) Countdown {
	if o.status != Offered {
		return NoCountdown()
	}
	return NewCountdown(*o.assignment.OfferedAt, window, now)
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customerId", err)
	}
	o.customerID = id
	return nil
}

func (o *Order) setKind(kind kernel.ServiceKind) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	o.kind = kind
	return nil
}

func (o *Order) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	o.location = location
	return nil
}

func (o *Order) setCreatedAt(createdAt time.Time) error {
	if createdAt.IsZero() {
		return errs.NewValueIsRequiredError("createdAt")
	}
	o.createdAt = createdAt
	return nil
}

func (o *Order) setStatusAndAssignment(status Status, a Assignment) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if err := status.ValidateCanHaveAgent(a.AgentID != nil); err != nil {
		return err
	}
	if (status == Offered) != (a.OfferedAt != nil) {
		return errs.NewValueIsInvalidErrorWithCause(
			"offeredAt is invalid",
			fmt.Errorf("offeredAt must be set exactly when the order is offered, status is %s", status),
		)
	}
	if a.AttemptCount != len(a.OfferedAgents) {
		return errs.NewValueIsInvalidErrorWithCause(
			"attemptCount is invalid",
			fmt.Errorf("%d attempts recorded for %d offered agents", a.AttemptCount, len(a.OfferedAgents)),
		)
	}
	if status == Offered && !kernel.ContainsUUID(a.OfferedAgents, *a.AgentID) {
		return errs.NewValueIsInvalidError("offered agent is missing from offered agents")
	}

	o.status = status
	o.assignment = Assignment{
		AgentID:       cloneUUID(a.AgentID),
		OfferedAt:     cloneTime(a.OfferedAt),
		AcceptedAt:    cloneTime(a.AcceptedAt),
		AttemptCount:  a.AttemptCount,
		OfferedAgents: slices.Clone(a.OfferedAgents),
	}
	return nil
}

func cloneUUID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
