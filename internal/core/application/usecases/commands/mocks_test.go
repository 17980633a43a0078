package commands_test

import (
	"context"
	"errors"
	"time"

	"fieldops/internal/core/domain/model/agent"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"

	"github.com/stretchr/testify/mock"
)

type MockOrderStore struct{ mock.Mock }

func (m *MockOrderStore) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}
func (m *MockOrderStore) Get(_ context.Context, _ kernel.UUID) (*order.Order, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *MockOrderStore) ConditionalUpdate(
	_ context.Context, _ kernel.UUID, _ order.Condition, _ order.Change,
) (bool, *order.Order, error) {
	return false, nil, errors.New("not implemented in mock")
}
func (m *MockOrderStore) ListByStatus(_ context.Context, _ order.Status, _ int) ([]*order.Order, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *MockOrderStore) ListOffersExpiredBefore(_ context.Context, _ time.Time, _ int) ([]*order.Order, error) {
	return nil, errors.New("not implemented in mock")
}

type MockAgentRepository struct{ mock.Mock }

func (m *MockAgentRepository) Add(ctx context.Context, a *agent.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockAgentRepository) Update(_ context.Context, _ *agent.Agent) error { return nil }
func (m *MockAgentRepository) Get(_ context.Context, _ kernel.UUID) (*agent.Agent, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *MockAgentRepository) GetAll(_ context.Context) ([]*agent.Agent, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *MockAgentRepository) GetAllAvailable(_ context.Context, _ kernel.ServiceKind) ([]*agent.Agent, error) {
	return nil, errors.New("not implemented in mock")
}

type MockAssignmentStarter struct{ mock.Mock }

func (m *MockAssignmentStarter) StartAssignment(ctx context.Context, orderID kernel.UUID) (order.Status, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(order.Status), args.Error(1)
}

type MockOfferResponder struct{ mock.Mock }

func (m *MockOfferResponder) Accept(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, orderID, agentID)
	return orderOrNil(args.Get(0)), args.Error(1)
}
func (m *MockOfferResponder) Decline(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, orderID, agentID)
	return orderOrNil(args.Get(0)), args.Error(1)
}

type MockOrderLifecycle struct{ mock.Mock }

func (m *MockOrderLifecycle) Cancel(ctx context.Context, orderID kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	return orderOrNil(args.Get(0)), args.Error(1)
}
func (m *MockOrderLifecycle) StartService(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, orderID, agentID)
	return orderOrNil(args.Get(0)), args.Error(1)
}
func (m *MockOrderLifecycle) Complete(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, orderID, agentID)
	return orderOrNil(args.Get(0)), args.Error(1)
}

func orderOrNil(v any) *order.Order {
	if v == nil {
		return nil
	}
	return v.(*order.Order)
}
