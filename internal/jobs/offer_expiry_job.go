package jobs

import (
	"context"
	"log/slog"
	"time"

	"fieldops/internal/core/ports"
	"fieldops/internal/pkg/clock"
)

// OfferExpiryBatchSize caps the offers expired per tick.
const OfferExpiryBatchSize = 100

// OfferExpiryJob expires offers whose acceptance window elapsed without
// their timer firing. With the in-process timer this is what recovers
// offers made by a host that has since restarted.
type OfferExpiryJob struct {
	cronJob
	store   ports.OrderStore
	expirer ports.ExpiryHandler
	clock   clock.Clock
	window  time.Duration
}

// NewOfferExpiryJob creates the job running on schedule.
func NewOfferExpiryJob(
	store ports.OrderStore,
	expirer ports.ExpiryHandler,
	clk clock.Clock,
	window time.Duration,
	schedule string,
	logger *slog.Logger,
) *OfferExpiryJob {
	j := &OfferExpiryJob{
		store:   store,
		expirer: expirer,
		clock:   clk,
		window:  window,
	}
	j.cronJob = newCronJob("offer_expiry_job", schedule, j.Tick, logger)
	return j
}

// Tick expires one batch of overdue offers.
func (j *OfferExpiryJob) Tick(ctx context.Context) {
	deadline := j.clock.Now().Add(-j.window)

	orders, err := j.store.ListOffersExpiredBefore(ctx, deadline, OfferExpiryBatchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list overdue offers", "error", err)
		return
	}

	for _, o := range orders {
		if err := j.expirer.OnTimerExpired(ctx, o.ID(), o.AttemptCount()); err != nil {
			j.logger.ErrorContext(ctx, "Failed to expire offer", "order_id", o.ID(), "attempt", o.AttemptCount(), "error", err)
			continue
		}
		j.logger.WarnContext(ctx, "Expired offer missed by its timer", "order_id", o.ID(), "attempt", o.AttemptCount())
	}
}
