package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// EverySecond is the cron spec of the polling jobs.
const EverySecond = "* * * * * *"

// Job is a scheduled background task.
type Job interface {
	Name() string
	Start() error
	Stop()
}

// cronJob runs tick on a schedule. Ticks never overlap.
type cronJob struct {
	name     string
	schedule string
	tick     func(ctx context.Context)
	cron     *cron.Cron
	logger   *slog.Logger
}

func newCronJob(name, schedule string, tick func(ctx context.Context), logger *slog.Logger) cronJob {
	return cronJob{
		name:     name,
		schedule: schedule,
		tick:     tick,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger.With("component", name),
	}
}

// Name returns the job's name.
func (j *cronJob) Name() string {
	return j.name
}

// Start schedules the job and starts its cron.
func (j *cronJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		j.tick(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Job started", "schedule", j.schedule)
	return nil
}

// Stop stops the cron and waits for a running tick to finish.
func (j *cronJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Job stopped")
}
