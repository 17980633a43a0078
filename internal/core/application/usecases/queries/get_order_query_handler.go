package queries

import (
	"context"
	"time"

	"fieldops/internal/core/ports"
	"fieldops/internal/pkg/clock"
)

// GetOrderQueryHandler reads orders from the store.
type GetOrderQueryHandler struct {
	store  ports.OrderStore
	clock  clock.Clock
	window time.Duration
}

// NewGetOrderQueryHandler creates the handler. window is the acceptance
// window the countdown is computed against.
func NewGetOrderQueryHandler(store ports.OrderStore, clk clock.Clock, window time.Duration) GetOrderQueryHandler {
	return GetOrderQueryHandler{
		store:  store,
		clock:  clk,
		window: window,
	}
}

// Handle returns the order view. A missing order yields errs.ErrObjectNotFound.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	o, err := h.store.Get(ctx, query.OrderID())
	if err != nil {
		return OrderView{}, err
	}

	return NewOrderView(o, h.window, h.clock.Now()), nil
}
