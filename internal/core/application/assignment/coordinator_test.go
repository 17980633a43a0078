package assignment_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fieldops/internal/core/application/assignment"
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCoordinator_StartAssignment(t *testing.T) {
	t.Run("should offer to the first candidate and arm the timer", func(t *testing.T) {
		agents := agentIDs(2)
		f := newFixture(t, agents...)
		orderID := f.newOrder(t)

		status, err := f.coordinator.StartAssignment(t.Context(), orderID)

		require.NoError(t, err)
		assert.Equal(t, order.Offered, status)

		o := f.get(t, orderID)
		assert.True(t, o.AgentID().IsEqual(agents[0]))
		assert.Equal(t, 1, o.AttemptCount())
		assert.Equal(t, baseTime, *o.OfferedAt())

		armed, ok := f.timer.get(orderID)
		require.True(t, ok)
		assert.Equal(t, 1, armed.attempt)
		assert.Equal(t, assignment.DefaultAcceptanceWindow, armed.delay)

		event := f.sink.last()
		assert.Equal(t, order.EventOfferMade, event.Type)
		assert.True(t, event.AgentID.IsEqual(agents[0]))
		assert.Equal(t, 1, event.Attempt)
		assert.Equal(t, baseTime.Add(assignment.DefaultAcceptanceWindow), *event.ExpiresAt)
	})

	t.Run("should exhaust when no candidate exists", func(t *testing.T) {
		f := newFixture(t)
		orderID := f.newOrder(t)

		status, err := f.coordinator.StartAssignment(t.Context(), orderID)

		require.NoError(t, err)
		assert.Equal(t, order.Exhausted, status)
		assert.Zero(t, f.get(t, orderID).AttemptCount())
		assert.Equal(t, []order.EventType{order.EventExhausted}, f.sink.types())
	})

	t.Run("should be a no-op past created", func(t *testing.T) {
		f := newFixture(t, agentIDs(2)...)
		orderID := f.newOrder(t)
		_, err := f.coordinator.StartAssignment(t.Context(), orderID)
		require.NoError(t, err)

		status, err := f.coordinator.StartAssignment(t.Context(), orderID)

		require.NoError(t, err)
		assert.Equal(t, order.Offered, status)
		assert.Equal(t, 1, f.get(t, orderID).AttemptCount())
		assert.Len(t, f.sink.types(), 1)
	})

	t.Run("should make exactly one offer under concurrent starts", func(t *testing.T) {
		f := newFixture(t, agentIDs(3)...)
		orderID := f.newOrder(t)

		var g errgroup.Group
		for range 16 {
			g.Go(func() error {
				status, err := f.coordinator.StartAssignment(t.Context(), orderID)
				if err == nil && status != order.Offered {
					return errors.New("unexpected status " + status.String())
				}
				return err
			})
		}

		require.NoError(t, g.Wait())
		assert.Equal(t, 1, f.get(t, orderID).AttemptCount())
		assert.Equal(t, []order.EventType{order.EventOfferMade}, f.sink.types())
	})

	t.Run("should leave order created when candidate source fails", func(t *testing.T) {
		f := newFixture(t, agentIDs(1)...)
		f.source.fail(errUnavailable)
		orderID := f.newOrder(t)

		_, err := f.coordinator.StartAssignment(t.Context(), orderID)

		require.ErrorIs(t, err, errUnavailable)
		assert.Equal(t, order.Created, f.get(t, orderID).Status())
		assert.Empty(t, f.sink.types())
	})

	t.Run("should report missing order", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.coordinator.StartAssignment(t.Context(), kernel.NewUUID())

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

// A single candidate lets the window pass: exhausted after one attempt.
func TestCoordinator_SingleCandidateTimesOut(t *testing.T) {
	f := newFixture(t, agentIDs(1)...)
	orderID := f.newOrder(t)
	_, err := f.coordinator.StartAssignment(t.Context(), orderID)
	require.NoError(t, err)

	f.clock.Advance(assignment.DefaultAcceptanceWindow)
	f.timer.fire(t, f.coordinator, orderID)

	o := f.get(t, orderID)
	assert.Equal(t, order.Exhausted, o.Status())
	assert.Equal(t, 1, o.AttemptCount())
	assert.Nil(t, o.AgentID())
	assert.Equal(t,
		[]order.EventType{order.EventOfferMade, order.EventOfferExpired, order.EventExhausted},
		f.sink.types())
}

// Three candidates, the first two decline, the third accepts.
func TestCoordinator_ThirdCandidateAccepts(t *testing.T) {
	agents := agentIDs(3)
	f := newFixture(t, agents...)
	orderID := f.newOrder(t)
	_, err := f.coordinator.StartAssignment(t.Context(), orderID)
	require.NoError(t, err)

	_, err = f.gateway.Decline(t.Context(), orderID, agents[0])
	require.NoError(t, err)
	_, err = f.gateway.Decline(t.Context(), orderID, agents[1])
	require.NoError(t, err)
	accepted, err := f.gateway.Accept(t.Context(), orderID, agents[2])
	require.NoError(t, err)

	assert.Equal(t, order.Accepted, accepted.Status())
	assert.Equal(t, 3, accepted.AttemptCount())
	assert.True(t, accepted.AgentID().IsEqual(agents[2]))
	assert.Equal(t, agents, accepted.OfferedAgents())

	_, armed := f.timer.get(orderID)
	assert.False(t, armed)
	assert.Equal(t, []order.EventType{
		order.EventOfferMade,
		order.EventOfferDeclined, order.EventOfferMade,
		order.EventOfferDeclined, order.EventOfferMade,
		order.EventAccepted,
	}, f.sink.types())
}

func TestCoordinator_AttemptCap(t *testing.T) {
	agents := agentIDs(5)
	policy, err := assignment.NewPolicy(2, time.Minute, time.Second)
	require.NoError(t, err)
	f := newFixtureWithPolicy(t, policy, agents...)
	orderID := f.newOrder(t)
	_, err = f.coordinator.StartAssignment(t.Context(), orderID)
	require.NoError(t, err)

	_, err = f.gateway.Decline(t.Context(), orderID, agents[0])
	require.NoError(t, err)
	f.timer.fire(t, f.coordinator, orderID)

	o := f.get(t, orderID)
	assert.Equal(t, order.Exhausted, o.Status())
	assert.Equal(t, 2, o.AttemptCount())
	assert.Equal(t, order.EventExhausted, f.sink.last().Type)
}

func TestCoordinator_CancelWhileOffered(t *testing.T) {
	agents := agentIDs(2)
	f := newFixture(t, agents...)
	orderID := f.newOrder(t)
	_, err := f.coordinator.StartAssignment(t.Context(), orderID)
	require.NoError(t, err)

	cancelled, err := f.coordinator.Cancel(t.Context(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, cancelled.Status())
	assert.Nil(t, cancelled.AgentID())

	_, armed := f.timer.get(orderID)
	assert.False(t, armed)

	// a late timer that escaped cancellation
	require.NoError(t, f.coordinator.OnTimerExpired(t.Context(), orderID, 1))
	assert.Equal(t, order.Cancelled, f.get(t, orderID).Status())

	_, err = f.gateway.Accept(t.Context(), orderID, agents[0])
	require.ErrorIs(t, err, assignment.ErrStaleOffer)

	_, err = f.coordinator.Cancel(t.Context(), orderID)
	require.ErrorIs(t, err, assignment.ErrStaleOffer)
	assert.Equal(t, []order.EventType{order.EventOfferMade, order.EventCancelled}, f.sink.types())
}

func TestCoordinator_StaleTimers(t *testing.T) {
	agents := agentIDs(3)
	f := newFixture(t, agents...)
	orderID := f.newOrder(t)
	_, err := f.coordinator.StartAssignment(t.Context(), orderID)
	require.NoError(t, err)
	_, err = f.gateway.Decline(t.Context(), orderID, agents[0])
	require.NoError(t, err)
	before := f.get(t, orderID)

	require.NoError(t, f.coordinator.OnTimerExpired(t.Context(), orderID, 1))
	require.NoError(t, f.coordinator.OnTimerExpired(t.Context(), orderID, 3))

	after := f.get(t, orderID)
	assert.Equal(t, before.Assignment(), after.Assignment())
	assert.Equal(t, order.Offered, after.Status())
}

func TestCoordinator_TimerSchedulingFailure(t *testing.T) {
	t.Run("should resolve every offer as timed out", func(t *testing.T) {
		f := newFixture(t, agentIDs(2)...)
		f.timer.failWith = errors.New("redis down")
		orderID := f.newOrder(t)

		status, err := f.coordinator.StartAssignment(t.Context(), orderID)

		require.NoError(t, err)
		assert.Equal(t, order.Exhausted, status)
		assert.Equal(t, 2, f.get(t, orderID).AttemptCount())
		assert.Equal(t, []order.EventType{
			order.EventOfferMade, order.EventOfferExpired,
			order.EventOfferMade, order.EventOfferExpired,
			order.EventExhausted,
		}, f.sink.types())
	})
}

func TestCoordinator_CandidateFailureOnExpiry(t *testing.T) {
	agents := agentIDs(2)
	f := newFixture(t, agents...)
	orderID := f.newOrder(t)
	_, err := f.coordinator.StartAssignment(t.Context(), orderID)
	require.NoError(t, err)
	f.source.fail(errUnavailable)

	f.timer.fire(t, f.coordinator, orderID)

	o := f.get(t, orderID)
	assert.Equal(t, order.Offered, o.Status())
	assert.Equal(t, 1, o.AttemptCount())
	armed, ok := f.timer.get(orderID)
	require.True(t, ok)
	assert.Equal(t, 1, armed.attempt)
	assert.Equal(t, assignment.DefaultRetryDelay, armed.delay)

	f.source.fail(nil)
	f.timer.fire(t, f.coordinator, orderID)

	o = f.get(t, orderID)
	assert.Equal(t, 2, o.AttemptCount())
	assert.True(t, o.AgentID().IsEqual(agents[1]))
}

func TestCoordinator_CandidateFailureOnDecline(t *testing.T) {
	agents := agentIDs(2)
	f := newFixture(t, agents...)
	orderID := f.newOrder(t)
	_, err := f.coordinator.StartAssignment(t.Context(), orderID)
	require.NoError(t, err)
	f.source.fail(errUnavailable)

	_, err = f.gateway.Decline(t.Context(), orderID, agents[0])

	require.ErrorIs(t, err, errUnavailable)
	o := f.get(t, orderID)
	assert.Equal(t, order.Offered, o.Status())
	assert.True(t, o.AgentID().IsEqual(agents[0]))
	_, armed := f.timer.get(orderID)
	assert.True(t, armed)
}

func TestCoordinator_MakeOffer(t *testing.T) {
	agents := agentIDs(3)

	t.Run("should make the first offer on a created order", func(t *testing.T) {
		f := newFixture(t)
		orderID := f.newOrder(t)

		o, err := f.coordinator.MakeOffer(t.Context(), orderID, agents[0], 1)

		require.NoError(t, err)
		assert.Equal(t, order.Offered, o.Status())
		_, armed := f.timer.get(orderID)
		assert.True(t, armed)
	})

	t.Run("should only reassign an expired offer", func(t *testing.T) {
		f := newFixture(t)
		orderID := f.newOrder(t)
		_, err := f.coordinator.MakeOffer(t.Context(), orderID, agents[0], 1)
		require.NoError(t, err)

		_, err = f.coordinator.MakeOffer(t.Context(), orderID, agents[1], 2)
		require.ErrorIs(t, err, assignment.ErrStaleOffer)

		f.clock.Advance(assignment.DefaultAcceptanceWindow)

		_, err = f.coordinator.MakeOffer(t.Context(), orderID, agents[0], 2)
		require.ErrorIs(t, err, assignment.ErrStaleOffer, "agent was already offered the order")

		o, err := f.coordinator.MakeOffer(t.Context(), orderID, agents[1], 2)
		require.NoError(t, err)
		assert.Equal(t, 2, o.AttemptCount())
		assert.True(t, o.AgentID().IsEqual(agents[1]))
		assert.Equal(t, []order.EventType{order.EventOfferMade, order.EventOfferExpired, order.EventOfferMade}, f.sink.types())
	})

	t.Run("should reject attempt numbers out of range", func(t *testing.T) {
		f := newFixture(t)
		orderID := f.newOrder(t)

		_, err := f.coordinator.MakeOffer(t.Context(), orderID, agents[0], 0)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)

		_, err = f.coordinator.MakeOffer(t.Context(), orderID, agents[0], assignment.DefaultMaxAttempts+1)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("should refuse a first offer twice", func(t *testing.T) {
		f := newFixture(t)
		orderID := f.newOrder(t)
		_, err := f.coordinator.MakeOffer(t.Context(), orderID, agents[0], 1)
		require.NoError(t, err)

		_, err = f.coordinator.MakeOffer(t.Context(), orderID, agents[1], 1)

		require.ErrorIs(t, err, assignment.ErrStaleOffer)
	})
}

func TestCoordinator_ServiceLifecycle(t *testing.T) {
	agents := agentIDs(1)
	f := newFixture(t, agents...)
	orderID := f.newOrder(t)
	_, err := f.coordinator.StartAssignment(t.Context(), orderID)
	require.NoError(t, err)

	_, err = f.coordinator.StartService(t.Context(), orderID, agents[0])
	require.ErrorIs(t, err, assignment.ErrStaleOffer, "cannot start before accepting")

	_, err = f.gateway.Accept(t.Context(), orderID, agents[0])
	require.NoError(t, err)

	_, err = f.coordinator.StartService(t.Context(), orderID, kernel.NewUUID())
	require.ErrorIs(t, err, assignment.ErrStaleOffer, "only the accepted agent starts")

	active, err := f.coordinator.StartService(t.Context(), orderID, agents[0])
	require.NoError(t, err)
	assert.Equal(t, order.Active, active.Status())

	completed, err := f.coordinator.Complete(t.Context(), orderID, agents[0])
	require.NoError(t, err)
	assert.Equal(t, order.Completed, completed.Status())
	assert.Nil(t, completed.AgentID())

	_, err = f.coordinator.Complete(t.Context(), orderID, agents[0])
	require.ErrorIs(t, err, assignment.ErrStaleOffer)
	assert.Equal(t, order.EventCompleted, f.sink.last().Type)
}

// Accept racing the timer at the window boundary: exactly one side wins.
func TestCoordinator_AcceptRacesTimer(t *testing.T) {
	for range 50 {
		agents := agentIDs(2)
		f := newFixture(t, agents...)
		orderID := f.newOrder(t)
		_, err := f.coordinator.StartAssignment(t.Context(), orderID)
		require.NoError(t, err)
		f.clock.Advance(assignment.DefaultAcceptanceWindow)

		var acceptErr error
		var g errgroup.Group
		g.Go(func() error {
			_, acceptErr = f.gateway.Accept(context.Background(), orderID, agents[0])
			return nil
		})
		g.Go(func() error {
			return f.coordinator.OnTimerExpired(context.Background(), orderID, 1)
		})
		require.NoError(t, g.Wait())

		o := f.get(t, orderID)
		if acceptErr == nil {
			assert.Equal(t, order.Accepted, o.Status())
			assert.Equal(t, 1, o.AttemptCount())
			assert.True(t, o.AgentID().IsEqual(agents[0]))
			_, armed := f.timer.get(orderID)
			assert.False(t, armed)
		} else {
			require.ErrorIs(t, acceptErr, assignment.ErrStaleOffer)
			assert.Equal(t, order.Offered, o.Status())
			assert.Equal(t, 2, o.AttemptCount())
			assert.True(t, o.AgentID().IsEqual(agents[1]))
		}
	}
}

func TestCoordinator_NeverTwoAgents(t *testing.T) {
	agents := agentIDs(3)
	f := newFixture(t, agents...)
	orderID := f.newOrder(t)
	_, err := f.coordinator.StartAssignment(t.Context(), orderID)
	require.NoError(t, err)

	var accepted atomic.Int32
	var g errgroup.Group
	for _, agentID := range agents {
		g.Go(func() error {
			if _, err := f.gateway.Accept(context.Background(), orderID, agentID); err == nil {
				accepted.Add(1)
			}
			return nil
		})
		g.Go(func() error {
			_, _ = f.gateway.Decline(context.Background(), orderID, agentID)
			return nil
		})
		g.Go(func() error {
			return f.coordinator.OnTimerExpired(context.Background(), orderID, 1)
		})
	}
	require.NoError(t, g.Wait())

	o := f.get(t, orderID)
	assert.LessOrEqual(t, accepted.Load(), int32(1))
	assert.LessOrEqual(t, o.AttemptCount(), assignment.DefaultMaxAttempts)
	require.NoError(t, o.Status().ValidateCanHaveAgent(o.AgentID() != nil))
}
