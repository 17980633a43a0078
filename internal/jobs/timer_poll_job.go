package jobs

import (
	"context"
	"log/slog"
	"time"

	"fieldops/internal/pkg/clock"
)

// DuePoller fires timer deadlines that are due at now.
type DuePoller interface {
	FireDue(ctx context.Context, now time.Time) (int, error)
}

// TimerPollJob drives a polled timer such as timer.RedisTimer.
type TimerPollJob struct {
	cronJob
	poller DuePoller
	clock  clock.Clock
}

// NewTimerPollJob creates the job. It runs every second.
func NewTimerPollJob(poller DuePoller, clk clock.Clock, logger *slog.Logger) *TimerPollJob {
	j := &TimerPollJob{
		poller: poller,
		clock:  clk,
	}
	j.cronJob = newCronJob("timer_poll_job", EverySecond, j.Tick, logger)
	return j
}

// Tick fires every due deadline.
func (j *TimerPollJob) Tick(ctx context.Context) {
	fired, err := j.poller.FireDue(ctx, j.clock.Now())
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to fire due timers", "error", err)
	}
	if fired > 0 {
		j.logger.DebugContext(ctx, "Fired due timers", "count", fired)
	}
}
