package jobs

import (
	"context"
	"errors"
	"log/slog"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/core/ports"
	"fieldops/internal/pkg/errs"
)

// AssignmentBatchSize caps the orders started per tick.
const AssignmentBatchSize = 50

// AssignmentStarter starts the offer cycle of a created order.
type AssignmentStarter interface {
	StartAssignment(ctx context.Context, orderID kernel.UUID) (order.Status, error)
}

// AssignmentJob picks up orders left in created, either because intake
// did not start them or because their start failed.
type AssignmentJob struct {
	cronJob
	store   ports.OrderStore
	starter AssignmentStarter
}

// NewAssignmentJob creates the job. It runs every second.
func NewAssignmentJob(store ports.OrderStore, starter AssignmentStarter, logger *slog.Logger) *AssignmentJob {
	j := &AssignmentJob{
		store:   store,
		starter: starter,
	}
	j.cronJob = newCronJob("assignment_job", EverySecond, j.Tick, logger)
	return j
}

// Tick starts assignment for one batch of created orders.
func (j *AssignmentJob) Tick(ctx context.Context) {
	orders, err := j.store.ListByStatus(ctx, order.Created, AssignmentBatchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list created orders", "error", err)
		return
	}

	for _, o := range orders {
		status, err := j.starter.StartAssignment(ctx, o.ID())
		if err != nil {
			// Expected when the order was removed between list and start
			if !errors.Is(err, errs.ErrObjectNotFound) {
				j.logger.ErrorContext(ctx, "Failed to start assignment", "order_id", o.ID(), "error", err)
			}
			continue
		}
		j.logger.DebugContext(ctx, "Assignment started", "order_id", o.ID(), "status", status)
	}
}
