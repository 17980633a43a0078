package ports

import (
	"context"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
)

// OrderStore is the persistence contract for order aggregates. Its
// ConditionalUpdate is the only serialization point of the assignment
// workflow: every transition is one compare-and-swap on the order row.
type OrderStore interface {
	// Add persists a new order. The order must not already exist.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by identifier.
	// Returns errs.ErrObjectNotFound when there is no such order.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ConditionalUpdate atomically applies change if the stored order
	// satisfies cond. It returns whether the change was applied together
	// with the order as stored after the call: the updated order on
	// success, the current one otherwise.
	// Returns errs.ErrObjectNotFound when there is no such order.
	ConditionalUpdate(ctx context.Context, id kernel.UUID, cond order.Condition, change order.Change) (bool, *order.Order, error)

	// ListByStatus returns up to limit orders in status, oldest first.
	ListByStatus(ctx context.Context, status order.Status, limit int) ([]*order.Order, error)

	// ListOffersExpiredBefore returns up to limit offered orders whose
	// current offer was made at or before instant, oldest offer first.
	ListOffersExpiredBefore(ctx context.Context, instant time.Time, limit int) ([]*order.Order, error)
}
