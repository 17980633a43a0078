package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	jobs    []Job
	started []Job
	logger  *slog.Logger
}

// NewJobManager creates a manager for jobs. Nil jobs are skipped, so
// optional jobs can be passed unconditionally.
func NewJobManager(logger *slog.Logger, jobs ...Job) *JobManager {
	jm := &JobManager{logger: logger.With("component", "job_manager")}
	for _, j := range jobs {
		if j != nil {
			jm.jobs = append(jm.jobs, j)
		}
	}
	return jm
}

// StartAll starts every job in order. If one fails, the jobs already
// started are stopped and the error is returned.
func (jm *JobManager) StartAll() error {
	for _, j := range jm.jobs {
		if err := j.Start(); err != nil {
			jm.StopAll()
			return fmt.Errorf("failed to start %s: %w", j.Name(), err)
		}
		jm.started = append(jm.started, j)
	}

	jm.logger.InfoContext(context.Background(), "All jobs started", "count", len(jm.started))
	return nil
}

// StopAll stops the started jobs in reverse order.
func (jm *JobManager) StopAll() {
	for i := len(jm.started) - 1; i >= 0; i-- {
		jm.started[i].Stop()
	}
	jm.started = nil
}
