package queries

import (
	"cmp"
	"context"
	"slices"
	"time"

	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/core/ports"
	"fieldops/internal/pkg/clock"
)

// MaxUnresolvedOrdersPerStatus caps how many orders of each status the
// board shows.
const MaxUnresolvedOrdersPerStatus = 500

// GetUnresolvedOrdersQueryHandler reads non-terminal orders from the store.
type GetUnresolvedOrdersQueryHandler struct {
	store  ports.OrderStore
	clock  clock.Clock
	window time.Duration
}

// NewGetUnresolvedOrdersQueryHandler creates the handler.
func NewGetUnresolvedOrdersQueryHandler(
	store ports.OrderStore,
	clk clock.Clock,
	window time.Duration,
) GetUnresolvedOrdersQueryHandler {
	return GetUnresolvedOrdersQueryHandler{
		store:  store,
		clock:  clk,
		window: window,
	}
}

// Handle returns the unresolved orders, oldest first.
func (h GetUnresolvedOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetUnresolvedOrdersQuery,
) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	now := h.clock.Now()
	views := make([]OrderView, 0)
	for _, status := range order.NonTerminalStatuses() {
		orders, err := h.store.ListByStatus(ctx, status, MaxUnresolvedOrdersPerStatus)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			views = append(views, NewOrderView(o, h.window, now))
		}
	}

	slices.SortStableFunc(views, func(a, b OrderView) int {
		return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	})
	return views, nil
}
