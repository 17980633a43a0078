package assignment

import "errors"

var (
	// ErrStaleOffer means the order moved on before the call took effect:
	// the offer expired, was reassigned, was decided by someone else or the
	// order was cancelled. Callers show "order no longer available" and do
	// not retry.
	ErrStaleOffer = errors.New("order is no longer available")

	// ErrNoCandidatesAvailable means the candidate source ran dry. The order
	// is exhausted when this happens.
	ErrNoCandidatesAvailable = errors.New("no agents available, please retry later")

	// ErrTimerScheduling wraps a failure to arm the acceptance timer. The
	// offer is then resolved as if it had timed out immediately.
	ErrTimerScheduling = errors.New("acceptance timer could not be scheduled")
)
