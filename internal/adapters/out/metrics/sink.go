// Package metrics exports assignment lifecycle events as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"

	"fieldops/internal/core/domain/model/order"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink is a NotificationSink that counts events by type and records how
// many offers an order needed before it was accepted.
type Sink struct {
	events   *prometheus.CounterVec
	attempts prometheus.Histogram
}

// NewSink creates the collectors and registers them with reg.
func NewSink(reg prometheus.Registerer) (*Sink, error) {
	s := &Sink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldops",
			Name:      "assignment_events_total",
			Help:      "Assignment lifecycle events by type.",
		}, []string{"type"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fieldops",
			Name:      "offer_attempts",
			Help:      "Offers made before an order was accepted.",
			Buckets:   prometheus.LinearBuckets(1, 1, 5),
		}),
	}

	for _, c := range []prometheus.Collector{s.events, s.attempts} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register assignment metrics: %w", err)
		}
	}
	return s, nil
}

// Notify implements ports.NotificationSink.
func (s *Sink) Notify(_ context.Context, event order.Event) {
	s.events.WithLabelValues(string(event.Type)).Inc()

	if event.Type == order.EventAccepted {
		s.attempts.Observe(float64(event.Attempt))
	}
}
