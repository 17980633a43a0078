package assignment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fieldops/internal/adapters/out/memory"
	"fieldops/internal/core/application/assignment"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/pkg/clock"

	"github.com/stretchr/testify/require"
)

var (
	baseTime       = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	errUnavailable = errors.New("agent directory unavailable")
)

// listSource hands out agents in a fixed order.
type listSource struct {
	mu     sync.Mutex
	agents []kernel.UUID
	err    error
	calls  int
}

func (s *listSource) NextCandidate(_ context.Context, _ *order.Order, exclude []kernel.UUID) (kernel.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return kernel.UUID{}, false, s.err
	}
	for _, id := range s.agents {
		if !kernel.ContainsUUID(exclude, id) {
			return id, true, nil
		}
	}
	return kernel.UUID{}, false, nil
}

func (s *listSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type armedTimer struct {
	attempt int
	delay   time.Duration
}

// manualTimer records what is armed and fires only on demand.
type manualTimer struct {
	mu        sync.Mutex
	armed     map[kernel.UUID]armedTimer
	schedules int
	failWith  error
}

func newManualTimer() *manualTimer {
	return &manualTimer{armed: make(map[kernel.UUID]armedTimer)}
}

func (m *manualTimer) Schedule(_ context.Context, orderID kernel.UUID, attempt int, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules++
	if m.failWith != nil {
		return m.failWith
	}
	m.armed[orderID] = armedTimer{attempt: attempt, delay: d}
	return nil
}

func (m *manualTimer) Cancel(_ context.Context, orderID kernel.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.armed, orderID)
	return nil
}

func (m *manualTimer) get(orderID kernel.UUID) (armedTimer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.armed[orderID]
	return a, ok
}

// fire disarms the order's timer and delivers it to the coordinator.
func (m *manualTimer) fire(t *testing.T, c *assignment.Coordinator, orderID kernel.UUID) {
	t.Helper()
	m.mu.Lock()
	a, ok := m.armed[orderID]
	delete(m.armed, orderID)
	m.mu.Unlock()
	require.True(t, ok, "no timer armed for order %s", orderID)
	require.NoError(t, c.OnTimerExpired(t.Context(), orderID, a.attempt))
}

// recordingSink keeps every event in arrival order.
type recordingSink struct {
	mu     sync.Mutex
	events []order.Event
}

func (s *recordingSink) Notify(_ context.Context, event order.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) types() []order.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]order.EventType, len(s.events))
	for i, e := range s.events {
		types[i] = e.Type
	}
	return types
}

func (s *recordingSink) last() order.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

type fixture struct {
	store       *memory.OrderStore
	source      *listSource
	timer       *manualTimer
	sink        *recordingSink
	clock       *clock.Manual
	coordinator *assignment.Coordinator
	gateway     *assignment.Gateway
}

func newFixture(t *testing.T, agents ...kernel.UUID) *fixture {
	t.Helper()
	return newFixtureWithPolicy(t, assignment.DefaultPolicy(), agents...)
}

func newFixtureWithPolicy(t *testing.T, policy assignment.Policy, agents ...kernel.UUID) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.NewOrderStore(),
		source: &listSource{agents: agents},
		timer:  newManualTimer(),
		sink:   &recordingSink{},
		clock:  clock.NewManual(baseTime),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.coordinator = assignment.NewCoordinator(f.store, f.source, f.timer, f.sink, f.clock, policy, logger)
	f.gateway = assignment.NewGateway(f.store, f.coordinator, f.timer, f.sink, f.clock, logger)
	return f
}

func (f *fixture) newOrder(t *testing.T) kernel.UUID {
	t.Helper()
	loc, err := kernel.NewLocation(41.3874, 2.1686)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.FuelDelivery, loc, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Add(t.Context(), o))
	return o.ID()
}

func (f *fixture) get(t *testing.T, orderID kernel.UUID) *order.Order {
	t.Helper()
	o, err := f.store.Get(t.Context(), orderID)
	require.NoError(t, err)
	return o
}

func agentIDs(n int) []kernel.UUID {
	ids := make([]kernel.UUID, n)
	for i := range ids {
		ids[i] = kernel.NewUUID()
	}
	return ids
}
