package assignment

import (
	"errors"
	"time"

	"fieldops/internal/pkg/errs"
)

const (
	// DefaultMaxAttempts is how many agents an order is offered to before it
	// is exhausted.
	DefaultMaxAttempts = 3
	// DefaultAcceptanceWindow is how long one offer stays open.
	DefaultAcceptanceWindow = 2 * time.Minute
	// DefaultRetryDelay is how long an expired offer waits before the
	// candidate source is asked again after it failed.
	DefaultRetryDelay = 5 * time.Second
)

// Policy holds the tunables of the offer cycle.
type Policy struct {
	MaxAttempts      int
	AcceptanceWindow time.Duration
	RetryDelay       time.Duration
}

// DefaultPolicy returns 3 attempts, a 2 minute window and a 5 second retry delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:      DefaultMaxAttempts,
		AcceptanceWindow: DefaultAcceptanceWindow,
		RetryDelay:       DefaultRetryDelay,
	}
}

// NewPolicy builds a validated Policy.
func NewPolicy(maxAttempts int, acceptanceWindow, retryDelay time.Duration) (Policy, error) {
	p := Policy{
		MaxAttempts:      maxAttempts,
		AcceptanceWindow: acceptanceWindow,
		RetryDelay:       retryDelay,
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate requires at least one attempt and positive durations.
func (p Policy) Validate() error {
	var maxAttemptsErr, windowErr, retryErr error
	if p.MaxAttempts < 1 {
		maxAttemptsErr = errs.NewValueIsOutOfRangeError("maxAttempts", p.MaxAttempts, 1, "unbounded")
	}
	if p.AcceptanceWindow <= 0 {
		windowErr = errs.NewValueIsInvalidError("acceptance window must be positive")
	}
	if p.RetryDelay <= 0 {
		retryErr = errs.NewValueIsInvalidError("retry delay must be positive")
	}
	return errors.Join(maxAttemptsErr, windowErr, retryErr)
}
