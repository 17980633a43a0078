package order

import "time"

// Urgency buckets the remaining share of an acceptance window for clients.
type Urgency string

const (
	UrgencyNone     Urgency = "none"
	UrgencyCalm     Urgency = "calm"
	UrgencyHurry    Urgency = "hurry"
	UrgencyCritical Urgency = "critical"
	UrgencyExpired  Urgency = "expired"
)

// Countdown is the derived, non-authoritative view of an offer's remaining
// time. Expiry itself is decided server side by the assignment timer.
type Countdown struct {
	Window    time.Duration
	Remaining time.Duration
	ExpiresAt *time.Time
	Urgency   Urgency
}

// NoCountdown is the countdown of an order without a live offer.
func NoCountdown() Countdown {
	return Countdown{Urgency: UrgencyNone}
}

// NewCountdown computes max(0, window - (now - offeredAt)) and its urgency:
// calm above half the window, hurry above a fifth, critical until zero.
func NewCountdown(offeredAt time.Time, window time.Duration, now time.Time) Countdown {
	expiresAt := offeredAt.Add(window)
	remaining := max(window-now.Sub(offeredAt), 0)
	if remaining > window {
		// offeredAt ahead of now: clock skew between hosts
		remaining = window
	}

	return Countdown{
		Window:    window,
		Remaining: remaining,
		ExpiresAt: &expiresAt,
		Urgency:   urgencyFor(remaining, window),
	}
}

func urgencyFor(remaining, window time.Duration) Urgency {
	if window <= 0 || remaining <= 0 {
		return UrgencyExpired
	}
	fraction := float64(remaining) / float64(window)
	switch {
	case fraction > 0.5:
		return UrgencyCalm
	case fraction > 0.2:
		return UrgencyHurry
	default:
		return UrgencyCritical
	}
}
