package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"
	"fieldops/internal/core/ports"
	"fieldops/internal/pkg/clock"
	"fieldops/internal/pkg/errs"
)

// trigger is what made the coordinator look for the next candidate.
type trigger int

const (
	triggerStart trigger = iota
	triggerDeclined
	triggerExpired
)

func (t trigger) String() string {
	switch t {
	case triggerDeclined:
		return "declined"
	case triggerExpired:
		return "expired"
	default:
		return "start"
	}
}

// Coordinator drives an order through the offer cycle until it is accepted,
// exhausted or cancelled.
//
// The coordinator keeps no state of its own. Every transition is one
// ConditionalUpdate on the OrderStore, so several coordinators on different
// hosts may work on the same order: whichever swap lands first wins and the
// others observe a stale precondition.
//
// It is re-entered by three independent triggers for a live offer: the
// agent's decline, the agent's accept (through Gateway) and the acceptance
// timer. Exactly one of them takes effect per attempt.
type Coordinator struct {
	store      ports.OrderStore
	candidates ports.CandidateAgentSource
	timer      ports.AssignmentTimer
	sink       ports.NotificationSink
	clock      clock.Clock
	policy     Policy
	logger     *slog.Logger
}

// NewCoordinator wires a Coordinator. The policy must already be validated.
func NewCoordinator(
	store ports.OrderStore,
	candidates ports.CandidateAgentSource,
	timer ports.AssignmentTimer,
	sink ports.NotificationSink,
	clk clock.Clock,
	policy Policy,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		store:      store,
		candidates: candidates,
		timer:      timer,
		sink:       sink,
		clock:      clk,
		policy:     policy,
		logger:     logger.With("component", "assignment_coordinator"),
	}
}

// Policy returns the policy the coordinator runs with.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// StartAssignment makes the first offer for a created order, or exhausts it
// when no candidate exists. Calling it on an order past created is a no-op
// that reports the current status.
func (c *Coordinator) StartAssignment(ctx context.Context, orderID kernel.UUID) (order.Status, error) {
	o, err := c.store.Get(ctx, orderID)
	if err != nil {
		return order.Unknown, err
	}

	if o.Status() != order.Created {
		c.logger.DebugContext(ctx, "Assignment already started", "order_id", orderID, "status", o.Status())
		return o.Status(), nil
	}

	updated, err := c.advance(ctx, o, order.InStatus(order.Created).WithAttempt(0), triggerStart)
	if errors.Is(err, ErrStaleOffer) {
		// a concurrent start won the swap
		return updated.Status(), nil
	}
	if err != nil {
		return order.Unknown, err
	}

	return updated.Status(), nil
}

// MakeOffer offers the order to agentID as attempt number attempt.
//
// The first attempt requires a created order. A later attempt requires the
// previous attempt to still be the current offer, made to another agent and
// already past its acceptance window; agentID must never have been offered
// the order before.
func (c *Coordinator) MakeOffer(
	ctx context.Context,
	orderID kernel.UUID,
	agentID kernel.UUID,
	attempt int,
) (*order.Order, error) {
	if attempt < 1 || attempt > c.policy.MaxAttempts {
		return nil, errs.NewValueIsOutOfRangeError("attempt", attempt, 1, c.policy.MaxAttempts)
	}
	if err := agentID.Validate(); err != nil {
		return nil, err
	}

	cond := order.InStatus(order.Created).WithAttempt(0)
	if attempt > 1 {
		cond = order.InStatus(order.Offered).
			WithAttempt(attempt - 1).
			WithOfferedBefore(c.clock.Now().Add(-c.policy.AcceptanceWindow))
	}

	o, err := c.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	trig := triggerStart
	if attempt > 1 {
		trig = triggerExpired
	}
	return c.offer(ctx, o, agentID, cond.WithNotOfferedTo(agentID), trig)
}

// OnTimerExpired handles a fired acceptance timer. If the order is still
// offered with the same attempt the offer has timed out and the order moves
// to the next candidate or is exhausted. Anything else is a stale timer and
// is discarded without mutation.
func (c *Coordinator) OnTimerExpired(ctx context.Context, orderID kernel.UUID, attempt int) error {
	_, err := c.expire(ctx, orderID, attempt)
	return err
}

// OnDeclined handles agentID turning down attempt. It behaves like a timeout
// that does not wait for the window. Returns ErrStaleOffer when agentID no
// longer holds that attempt.
func (c *Coordinator) OnDeclined(
	ctx context.Context,
	orderID kernel.UUID,
	agentID kernel.UUID,
	attempt int,
) (*order.Order, error) {
	o, err := c.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	cond := order.InStatus(order.Offered).WithAttempt(attempt).WithAgent(agentID)
	if !o.Satisfies(cond) {
		return o, ErrStaleOffer
	}

	return c.advance(ctx, o, cond, triggerDeclined)
}

// Cancel withdraws an order from any non-terminal status and disarms its
// timer. Returns ErrStaleOffer when the order is already terminal.
func (c *Coordinator) Cancel(ctx context.Context, orderID kernel.UUID) (*order.Order, error) {
	ok, updated, err := c.store.ConditionalUpdate(ctx, orderID,
		order.InStatus(order.NonTerminalStatuses()...), order.CancelChange())
	if err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	if !ok {
		return updated, ErrStaleOffer
	}

	c.cancelTimer(ctx, orderID)
	c.sink.Notify(ctx, order.NewCancelledEvent(orderID, c.clock.Now()))
	c.logger.InfoContext(ctx, "Order cancelled", "order_id", orderID)
	return updated, nil
}

// StartService moves an accepted order to active. Only the accepted agent
// may do so.
func (c *Coordinator) StartService(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error) {
	ok, updated, err := c.store.ConditionalUpdate(ctx, orderID,
		order.InStatus(order.Accepted).WithAgent(agentID), order.StartChange(agentID))
	if err != nil {
		return nil, fmt.Errorf("start service on order %s: %w", orderID, err)
	}
	if !ok {
		return updated, ErrStaleOffer
	}

	c.sink.Notify(ctx, order.NewServiceStartedEvent(orderID, agentID, c.clock.Now()))
	return updated, nil
}

// Complete closes an active order and releases its agent.
func (c *Coordinator) Complete(ctx context.Context, orderID, agentID kernel.UUID) (*order.Order, error) {
	ok, updated, err := c.store.ConditionalUpdate(ctx, orderID,
		order.InStatus(order.Active).WithAgent(agentID), order.CompleteChange())
	if err != nil {
		return nil, fmt.Errorf("complete order %s: %w", orderID, err)
	}
	if !ok {
		return updated, ErrStaleOffer
	}

	c.sink.Notify(ctx, order.NewCompletedEvent(orderID, agentID, c.clock.Now()))
	return updated, nil
}

func (c *Coordinator) expire(ctx context.Context, orderID kernel.UUID, attempt int) (*order.Order, error) {
	o, err := c.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status() != order.Offered || o.AttemptCount() != attempt {
		c.logger.DebugContext(ctx, "Discarding stale timer",
			"order_id", orderID, "attempt", attempt, "status", o.Status(), "current_attempt", o.AttemptCount())
		return o, nil
	}

	cond := order.InStatus(order.Offered).WithAttempt(attempt).WithAgent(*o.AgentID())
	updated, err := c.advance(ctx, o, cond, triggerExpired)
	if errors.Is(err, ErrStaleOffer) {
		c.logger.DebugContext(ctx, "Timer lost the race", "order_id", orderID, "attempt", attempt)
		return updated, nil
	}
	return updated, err
}

// advance ends the current offer of o, if any, by offering the order to the
// next candidate or by exhausting it. cond is the precondition o must still
// satisfy in the store.
func (c *Coordinator) advance(
	ctx context.Context,
	o *order.Order,
	cond order.Condition,
	trig trigger,
) (*order.Order, error) {
	if o.AttemptCount() >= c.policy.MaxAttempts {
		return c.exhaust(ctx, o, cond, trig, "attempts exhausted")
	}

	next, found, err := c.candidates.NextCandidate(ctx, o, o.OfferedAgents())
	if err != nil {
		return c.candidateFailure(ctx, o, trig, err)
	}
	if found && kernel.ContainsUUID(o.OfferedAgents(), next) {
		c.logger.WarnContext(ctx, "Candidate source returned an excluded agent",
			"order_id", o.ID(), "agent_id", next)
		found = false
	}
	if !found {
		return c.exhaust(ctx, o, cond, trig, ErrNoCandidatesAvailable.Error())
	}

	return c.offer(ctx, o, next, cond.WithNotOfferedTo(next), trig)
}

func (c *Coordinator) offer(
	ctx context.Context,
	o *order.Order,
	agentID kernel.UUID,
	cond order.Condition,
	trig trigger,
) (*order.Order, error) {
	now := c.clock.Now()
	ok, updated, err := c.store.ConditionalUpdate(ctx, o.ID(), cond, order.OfferChange(agentID, now))
	if err != nil {
		return nil, fmt.Errorf("offer order %s: %w", o.ID(), err)
	}
	if !ok {
		return updated, ErrStaleOffer
	}

	c.notifyReleased(ctx, o, trig, now)
	return c.arm(ctx, updated, now)
}

// arm (re)starts the acceptance timer of a fresh offer and announces it. A
// timer that cannot be armed resolves the offer as an immediate timeout so
// the order never stays offered without a live timer.
func (c *Coordinator) arm(ctx context.Context, o *order.Order, now time.Time) (*order.Order, error) {
	offer, _ := o.CurrentOffer(c.policy.AcceptanceWindow)

	c.cancelTimer(ctx, o.ID())
	scheduleErr := c.timer.Schedule(ctx, o.ID(), offer.Attempt, c.policy.AcceptanceWindow)

	c.sink.Notify(ctx, order.NewOfferMadeEvent(offer, now))
	c.logger.InfoContext(ctx, "Offer made",
		"order_id", o.ID(), "agent_id", offer.AgentID, "attempt", offer.Attempt, "expires_at", offer.ExpiresAt)

	if scheduleErr != nil {
		c.logger.ErrorContext(ctx, "Resolving offer as timed out",
			"order_id", o.ID(), "attempt", offer.Attempt,
			"error", fmt.Errorf("%w: %w", ErrTimerScheduling, scheduleErr))
		return c.expire(ctx, o.ID(), offer.Attempt)
	}

	return o, nil
}

func (c *Coordinator) exhaust(
	ctx context.Context,
	o *order.Order,
	cond order.Condition,
	trig trigger,
	reason string,
) (*order.Order, error) {
	now := c.clock.Now()
	ok, updated, err := c.store.ConditionalUpdate(ctx, o.ID(), cond, order.ExhaustChange())
	if err != nil {
		return nil, fmt.Errorf("exhaust order %s: %w", o.ID(), err)
	}
	if !ok {
		return updated, ErrStaleOffer
	}

	if trig != triggerStart {
		c.cancelTimer(ctx, o.ID())
	}
	c.notifyReleased(ctx, o, trig, now)
	c.sink.Notify(ctx, order.NewExhaustedEvent(o.ID(), updated.AttemptCount(), now))
	c.logger.InfoContext(ctx, "Order exhausted",
		"order_id", o.ID(), "attempts", updated.AttemptCount(), "reason", reason)
	return updated, nil
}

// candidateFailure handles an error from the candidate source. Start and
// decline leave the order untouched: a created order is retried by the
// assignment job and a declined offer still has its timer armed. An expired
// offer has no live timer left, so a retry timer is armed for the same
// attempt, and the order is exhausted if even that fails.
func (c *Coordinator) candidateFailure(
	ctx context.Context,
	o *order.Order,
	trig trigger,
	cause error,
) (*order.Order, error) {
	if trig != triggerExpired {
		return nil, fmt.Errorf("next candidate for order %s: %w", o.ID(), cause)
	}

	c.logger.WarnContext(ctx, "Candidate source failed, retrying later",
		"order_id", o.ID(), "attempt", o.AttemptCount(), "retry_in", c.policy.RetryDelay, "error", cause)

	err := c.timer.Schedule(ctx, o.ID(), o.AttemptCount(), c.policy.RetryDelay)
	if err == nil {
		return o, nil
	}

	c.logger.ErrorContext(ctx, "Retry timer failed",
		"order_id", o.ID(), "error", fmt.Errorf("%w: %w", ErrTimerScheduling, err))
	cond := order.InStatus(order.Offered).WithAttempt(o.AttemptCount()).WithAgent(*o.AgentID())
	return c.exhaust(ctx, o, cond, trig, "candidate source unavailable")
}

// notifyReleased tells sinks how the previous offer of o ended.
func (c *Coordinator) notifyReleased(ctx context.Context, o *order.Order, trig trigger, now time.Time) {
	agentID := o.AgentID()
	if agentID == nil {
		return
	}

	switch trig {
	case triggerDeclined:
		c.sink.Notify(ctx, order.NewOfferDeclinedEvent(o.ID(), *agentID, o.AttemptCount(), now))
	case triggerExpired:
		c.sink.Notify(ctx, order.NewOfferExpiredEvent(o.ID(), *agentID, o.AttemptCount(), now))
	case triggerStart:
	}
}

func (c *Coordinator) cancelTimer(ctx context.Context, orderID kernel.UUID) {
	if err := c.timer.Cancel(ctx, orderID); err != nil {
		// a timer left armed fires later and is discarded as stale
		c.logger.WarnContext(ctx, "Failed to cancel timer", "order_id", orderID, "error", err)
	}
}
