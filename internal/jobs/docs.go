// Package jobs provides scheduled background tasks for the assignment
// workflow.
//
// The jobs use github.com/robfig/cron/v3 with second resolution and skip a
// tick while the previous one is still running.
//
// # Available Jobs
//
// 1. AssignmentJob - every second, starts assignment for orders still in created
// 2. OfferExpiryJob - on ASSIGNMENT_SWEEP_SCHEDULE, expires offers whose window elapsed
// without their timer firing, for example after a host restart
// 3. TimerPollJob - every second, fires due redis timer deadlines
//
// # Usage
//
//	jobManager := jobs.NewJobManager(logger, assignmentJob, expiryJob)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// Every job re-enters the workflow through the coordinator, whose
// conditional updates make a duplicated or late tick harmless.
package jobs
