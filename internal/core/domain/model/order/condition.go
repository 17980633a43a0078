package order

import (
	"slices"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/errs"
)

// Condition is the precondition of a compare-and-swap on an order row.
// Every set field must hold for the swap to apply; unset fields are not
// checked. A Condition with no statuses matches any status.
//
//	cond := order.InStatus(order.Offered).
//	    WithAttempt(2).
//	    WithAgent(agentID)
type Condition struct {
	Statuses      []Status
	Attempt       *int
	AgentID       *kernel.UUID
	NotOfferedTo  *kernel.UUID
	OfferedBefore *time.Time
}

// InStatus starts a Condition requiring one of statuses.
func InStatus(statuses ...Status) Condition {
	return Condition{Statuses: statuses}
}

// WithAttempt requires the attempt counter to equal attempt.
func (c Condition) WithAttempt(attempt int) Condition {
	c.Attempt = &attempt
	return c
}

// WithAgent requires agentID to be the assigned agent.
func (c Condition) WithAgent(agentID kernel.UUID) Condition {
	c.AgentID = &agentID
	return c
}

// WithNotOfferedTo requires that agentID has never been offered the order.
func (c Condition) WithNotOfferedTo(agentID kernel.UUID) Condition {
	c.NotOfferedTo = &agentID
	return c
}

// WithOfferedBefore requires the current offer to have been made at or
// before instant.
func (c Condition) WithOfferedBefore(instant time.Time) Condition {
	c.OfferedBefore = &instant
	return c
}

// Change is the set of fields written by a successful compare-and-swap.
//
// AgentID and OfferedAt are always written, nil clears them. AcceptedAt is
// written only when set. RecordOffer increments the attempt counter and
// appends AgentID to the list of agents already offered the order.
type Change struct {
	Status      Status
	AgentID     *kernel.UUID
	OfferedAt   *time.Time
	AcceptedAt  *time.Time
	RecordOffer bool
}

// OfferChange offers the order to agentID at now as a new attempt.
func OfferChange(agentID kernel.UUID, now time.Time) Change {
	return Change{Status: Offered, AgentID: &agentID, OfferedAt: &now, RecordOffer: true}
}

// AcceptChange confirms agentID.
func AcceptChange(agentID kernel.UUID, now time.Time) Change {
	return Change{Status: Accepted, AgentID: &agentID, AcceptedAt: &now}
}

// StartChange marks the service as started by agentID.
func StartChange(agentID kernel.UUID) Change {
	return Change{Status: Active, AgentID: &agentID}
}

// CompleteChange closes the order and releases the agent.
func CompleteChange() Change {
	return Change{Status: Completed}
}

// CancelChange withdraws the order and releases any agent.
func CancelChange() Change {
	return Change{Status: Cancelled}
}

// ExhaustChange gives up on the order.
func ExhaustChange() Change {
	return Change{Status: Exhausted}
}

// Validate checks the change is internally consistent. It does not look at
// any current order state.
func (ch Change) Validate() error {
	if err := ch.Status.Validate(); err != nil {
		return err
	}
	if err := ch.Status.ValidateCanHaveAgent(ch.AgentID != nil); err != nil {
		return err
	}
	if (ch.Status == Offered) != (ch.OfferedAt != nil) {
		return errs.NewValueIsInvalidError("offeredAt must be set exactly when the order is offered")
	}
	if ch.RecordOffer && ch.Status != Offered {
		return errs.NewValueIsInvalidError("only an offer can be recorded as an attempt")
	}
	return nil
}

// Satisfies reports whether the order currently matches cond.
func (o *Order) Satisfies(cond Condition) bool {
	if len(cond.Statuses) > 0 && !slices.Contains(cond.Statuses, o.status) {
		return false
	}
	if cond.Attempt != nil && o.assignment.AttemptCount != *cond.Attempt {
		return false
	}
	if cond.AgentID != nil && (o.assignment.AgentID == nil || !o.assignment.AgentID.IsEqual(*cond.AgentID)) {
		return false
	}
	if cond.NotOfferedTo != nil && kernel.ContainsUUID(o.assignment.OfferedAgents, *cond.NotOfferedTo) {
		return false
	}
	if cond.OfferedBefore != nil &&
		(o.assignment.OfferedAt == nil || o.assignment.OfferedAt.After(*cond.OfferedBefore)) {
		return false
	}
	return true
}

// Apply writes ch into the order after checking the transition is legal.
// Stores call it only after Satisfies returned true under their lock.
func (o *Order) Apply(ch Change) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	if err := o.status.ValidateTransition(ch.Status); err != nil {
		return err
	}

	o.status = ch.Status
	o.assignment.AgentID = cloneUUID(ch.AgentID)
	o.assignment.OfferedAt = cloneTime(ch.OfferedAt)
	if ch.AcceptedAt != nil {
		o.assignment.AcceptedAt = cloneTime(ch.AcceptedAt)
	}
	if ch.RecordOffer {
		o.assignment.AttemptCount++
		o.assignment.OfferedAgents = append(o.assignment.OfferedAgents, *ch.AgentID)
	}
	return nil
}
