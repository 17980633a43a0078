// Package memory provides in-process implementations of the storage ports.
// They share the compare-and-swap semantics of the postgres adapters and
// back the single-host dev mode and the application tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/pkg/errs"
)

// OrderStore is a mutex-guarded ports.OrderStore. Orders are cloned on the
// way in and out so callers never share state with the store.
type OrderStore struct {
	mu     sync.Mutex
	orders map[kernel.UUID]*order.Order
}

// NewOrderStore returns an empty store.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[kernel.UUID]*order.Order)}
}

// Add saves a new order.
func (s *OrderStore) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[aggregate.ID()]; exists {
		return errs.NewValueIsInvalidErrorWithCause("order", fmt.Errorf("order %s already exists", aggregate.ID()))
	}
	s.orders[aggregate.ID()] = aggregate.Clone()
	return nil
}

// Get retrieves an order by ID.
func (s *OrderStore) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return o.Clone(), nil
}

// ConditionalUpdate applies change under the store lock if the order
// satisfies cond.
func (s *OrderStore) ConditionalUpdate(
	_ context.Context,
	id kernel.UUID,
	cond order.Condition,
	change order.Change,
) (bool, *order.Order, error) {
	if err := change.Validate(); err != nil {
		return false, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, nil, errs.NewObjectNotFoundError("order", id.String())
	}

	if !o.Satisfies(cond) {
		return false, o.Clone(), nil
	}

	updated := o.Clone()
	if err := updated.Apply(change); err != nil {
		return false, nil, err
	}
	s.orders[id] = updated
	return true, updated.Clone(), nil
}

// ListByStatus returns up to limit orders in status, oldest first.
func (s *OrderStore) ListByStatus(_ context.Context, status order.Status, limit int) ([]*order.Order, error) {
	return s.list(limit, func(o *order.Order) bool {
		return o.Status() == status
	}, func(a, b *order.Order) int {
		return a.CreatedAt().Compare(b.CreatedAt())
	}), nil
}

// ListOffersExpiredBefore returns up to limit offers made at or before
// instant, oldest offer first.
func (s *OrderStore) ListOffersExpiredBefore(_ context.Context, instant time.Time, limit int) ([]*order.Order, error) {
	return s.list(limit, func(o *order.Order) bool {
		return o.Satisfies(order.InStatus(order.Offered).WithOfferedBefore(instant))
	}, func(a, b *order.Order) int {
		return a.OfferedAt().Compare(*b.OfferedAt())
	}), nil
}

func (s *OrderStore) list(
	limit int,
	match func(*order.Order) bool,
	compare func(a, b *order.Order) int,
) []*order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*order.Order, 0)
	for _, o := range s.orders {
		if match(o) {
			result = append(result, o.Clone())
		}
	}

	slices.SortFunc(result, func(a, b *order.Order) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ID().String(), b.ID().String())
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// busyAgents returns the agents currently attached to an order.
func (s *OrderStore) busyAgents() []kernel.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	busy := make([]kernel.UUID, 0)
	for _, o := range s.orders {
		if id := o.AgentID(); id != nil {
			busy = append(busy, *id)
		}
	}
	return busy
}
