package timer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/ports"
)

// ErrTimerStopped is returned by Schedule after Stop.
var ErrTimerStopped = errors.New("timer is stopped")

type localEntry struct {
	timer *time.Timer
	seq   uint64
}

// LocalTimer is an in-process ports.AssignmentTimer.
type LocalTimer struct {
	mu      sync.Mutex
	entries map[kernel.UUID]localEntry
	seq     uint64
	stopped bool
	handler ports.ExpiryHandler
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewLocalTimer returns a timer delivering to handler.
func NewLocalTimer(handler ports.ExpiryHandler, logger *slog.Logger) *LocalTimer {
	return &LocalTimer{
		entries: make(map[kernel.UUID]localEntry),
		handler: handler,
		logger:  logger.With("component", "local_timer"),
	}
}

// Schedule arms a one-shot timer for the order, replacing any previous one.
func (l *LocalTimer) Schedule(_ context.Context, orderID kernel.UUID, attempt int, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return ErrTimerStopped
	}

	if previous, ok := l.entries[orderID]; ok {
		previous.timer.Stop()
	}

	l.seq++
	seq := l.seq
	l.entries[orderID] = localEntry{
		seq: seq,
		timer: time.AfterFunc(d, func() {
			l.fire(orderID, attempt, seq)
		}),
	}
	return nil
}

// Cancel disarms the order's timer if one is armed.
func (l *LocalTimer) Cancel(_ context.Context, orderID kernel.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.entries[orderID]; ok {
		entry.timer.Stop()
		delete(l.entries, orderID)
	}
	return nil
}

// Pending returns how many timers are armed.
func (l *LocalTimer) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Stop disarms every timer, refuses later schedules and waits for handlers
// already running.
func (l *LocalTimer) Stop() {
	l.mu.Lock()
	l.stopped = true
	for id, entry := range l.entries {
		entry.timer.Stop()
		delete(l.entries, id)
	}
	l.mu.Unlock()

	l.wg.Wait()
}

func (l *LocalTimer) fire(orderID kernel.UUID, attempt int, seq uint64) {
	l.mu.Lock()
	entry, ok := l.entries[orderID]
	if !ok || entry.seq != seq || l.stopped {
		l.mu.Unlock()
		return
	}
	delete(l.entries, orderID)
	l.wg.Add(1)
	l.mu.Unlock()

	defer l.wg.Done()

	ctx := context.Background()
	if err := l.handler.OnTimerExpired(ctx, orderID, attempt); err != nil {
		l.logger.ErrorContext(ctx, "Expiry handler failed", "order_id", orderID, "attempt", attempt, "error", err)
	}
}
