package commands_test

import (
	"errors"
	"testing"

	"fieldops/internal/core/application/assignment"
	"fieldops/internal/core/application/usecases/commands"
	"fieldops/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelOrderCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	agentID := kernel.NewUUID()
	o := acceptedOrder(t, agentID)
	cmd, err := commands.NewCancelOrderCommand(o.ID())
	require.NoError(t, err)
	assert.Equal(t, o.ID(), cmd.OrderID())

	lifecycle := new(MockOrderLifecycle)
	lifecycle.On("Cancel", ctx, o.ID()).Return(o, nil).Once()

	got, err := commands.NewCancelOrderCommandHandler(lifecycle).Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Same(t, o, got)
	lifecycle.AssertExpectations(t)
}

func TestNewCancelOrderCommand_InvalidOrderID(t *testing.T) {
	_, err := commands.NewCancelOrderCommand(kernel.UUID{})
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)

	_, err = commands.NewCancelOrderCommandHandler(new(MockOrderLifecycle)).Handle(t.Context(), commands.CancelOrderCommand{})
	require.ErrorIs(t, err, commands.ErrCancelOrderCommandIsNotConstructed)
}

func TestStartServiceCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	orderID, agentID := kernel.NewUUID(), kernel.NewUUID()
	cmd, err := commands.NewStartServiceCommand(orderID, agentID)
	require.NoError(t, err)

	lifecycle := new(MockOrderLifecycle)
	lifecycle.On("StartService", ctx, orderID, agentID).Return(nil, assignment.ErrStaleOffer).Once()

	_, err = commands.NewStartServiceCommandHandler(lifecycle).Handle(ctx, cmd)
	require.ErrorIs(t, err, assignment.ErrStaleOffer)
	lifecycle.AssertExpectations(t)
}

func TestCompleteOrderCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	orderID, agentID := kernel.NewUUID(), kernel.NewUUID()
	cmd, err := commands.NewCompleteOrderCommand(orderID, agentID)
	require.NoError(t, err)

	lifecycle := new(MockOrderLifecycle)
	lifecycle.On("Complete", ctx, orderID, agentID).Return(nil, errors.New("db down")).Once()

	_, err = commands.NewCompleteOrderCommandHandler(lifecycle).Handle(ctx, cmd)
	require.EqualError(t, err, "db down")
	lifecycle.AssertExpectations(t)

	_, err = commands.NewCompleteOrderCommand(orderID, kernel.UUID{})
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}
