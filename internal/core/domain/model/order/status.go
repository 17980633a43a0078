package order

import (
	"fmt"

	"fieldops/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It implements the assignment state machine and rejects transitions the
// workflow does not allow.
//
// State transitions:
//
//	Created ──> Offered ──> Accepted ──> Active ──> Completed
//	              │  ▲
//	              └──┘ (decline or timeout, next candidate)
//	              │
//	              └────> Exhausted (no candidate left or attempt cap hit)
//
//	any non-terminal ──> Cancelled
//
// Completed, Cancelled and Exhausted are terminal.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Created is the initial status. The order waits for its first offer.
	Created

	// Offered means one agent currently holds a time-bounded offer.
	Offered

	// Accepted means the offered agent confirmed the order.
	Accepted

	// Active means the agent started the service on site.
	Active

	// Completed is the final status of a fulfilled order.
	Completed

	// Cancelled is the final status of an order withdrawn before completion.
	Cancelled

	// Exhausted is the final status of an order nobody accepted. It needs
	// out-of-band re-entry.
	Exhausted
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Created:   "created",
		Offered:   "offered",
		Accepted:  "accepted",
		Active:    "active",
		Completed: "completed",
		Cancelled: "cancelled",
		Exhausted: "exhausted",
	}
}

// transitions lists the statuses reachable from each non-terminal status.
// Offered -> Offered is a reassignment to the next candidate.
func transitions() map[Status][]Status {
	//nolint:exhaustive // terminal statuses have no outgoing transitions
	return map[Status][]Status{
		Created:  {Offered, Exhausted, Cancelled},
		Offered:  {Offered, Accepted, Exhausted, Cancelled},
		Accepted: {Active, Cancelled},
		Active:   {Completed, Cancelled},
	}
}

// NonTerminalStatuses returns every status an order can still leave.
func NonTerminalStatuses() []Status {
	return []Status{Created, Offered, Accepted, Active}
}

// ParseStatus converts the persisted or wire form ("offered") into a Status.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is one of the known statuses.
//
// Unknown (0) and any other values are invalid. Used for values coming from
// the database or the API.
func (s Status) Validate() error {
	if s <= Unknown || s > Exhausted {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the lower-case name used in storage, events and the API.
// It is safe to call on any Status value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsTerminal reports whether no further mutation is permitted.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == Exhausted
}

// HoldsAgent reports whether an order in this status must reference an agent.
func (s Status) HoldsAgent() bool {
	return s == Offered || s == Accepted || s == Active
}

// CanTransitionTo reports whether the workflow allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions()[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition is CanTransitionTo returning a domain error.
func (s Status) ValidateTransition(next Status) error {
	if !s.CanTransitionTo(next) {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s cannot transition to %s", s, next),
		)
	}
	return nil
}

// ValidateCanHaveAgent validates the consistency between order status and
// agent assignment.
//
// Business Rules:
//   - Offered, Accepted and Active orders must have an agent
//   - every other status must not have one
//
// Parameters:
//   - agent: whether the order references an agent
func (s Status) ValidateCanHaveAgent(agent bool) error {
	if agent && !s.HoldsAgent() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have an agent", s),
		)
	}

	if !agent && s.HoldsAgent() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no agent", s),
		)
	}

	return nil
}
