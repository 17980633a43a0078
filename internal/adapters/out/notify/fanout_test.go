package notify_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"fieldops/internal/adapters/out/notify"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSink struct{ mock.Mock }

func (m *MockSink) Notify(ctx context.Context, event order.Event) {
	m.Called(ctx, event)
}

func TestFanout_Notify_DeliversToEverySinkInOrder(t *testing.T) {
	ctx := t.Context()
	event := order.NewCancelledEvent(kernel.NewUUID(), time.Now())

	first, second := new(MockSink), new(MockSink)
	mock.InOrder(
		first.On("Notify", ctx, event).Return().Once(),
		second.On("Notify", ctx, event).Return().Once(),
	)

	notify.NewFanout(first, nil, second).Notify(ctx, event)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestFanout_Notify_Empty(t *testing.T) {
	assert.NotPanics(t, func() {
		notify.NewFanout().Notify(t.Context(), order.NewCancelledEvent(kernel.NewUUID(), time.Now()))
	})
}

func TestLogSink_Notify(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	orderID, agentID := kernel.NewUUID(), kernel.NewUUID()
	notify.NewLogSink(logger).Notify(t.Context(), order.NewOfferDeclinedEvent(orderID, agentID, 2, time.Now()))

	out := buf.String()
	assert.Contains(t, out, `"type":"offer_declined"`)
	assert.Contains(t, out, orderID.String())
	assert.Contains(t, out, agentID.String())
	assert.Contains(t, out, `"attempt":2`)
	assert.Contains(t, out, `"component":"event_log"`)
}
