// Package schedule re-runs the planner's startup fetches on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	appLog "partyplanner/internal/log"
)

// Job is one refresh run.
type Job func(ctx context.Context) error

// Refresher runs a Job on a standard five-field cron spec. Overlapping runs
// are skipped rather than queued.
type Refresher struct {
	spec    string
	job     Job
	running atomic.Bool
	runs    atomic.Int64
}

// New validates spec and returns a Refresher for job.
func New(spec string, job Job) (*Refresher, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	return &Refresher{spec: spec, job: job}, nil
}

// Run starts the schedule and blocks until ctx is canceled. A run already
// in progress is allowed to finish before Run returns.
func (r *Refresher) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.spec, func() { r.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	appLog.Info("refresh schedule started", "spec", r.spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("refresh schedule stopped")
	return nil
}

// Runs reports how many refreshes have completed.
func (r *Refresher) Runs() int64 { return r.runs.Load() }

func (r *Refresher) tick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		appLog.Debug("refresh skipped, previous run still active")
		return
	}
	defer r.running.Store(false)

	if err := r.job(ctx); err != nil {
		appLog.Error("refresh failed", err)
	} else {
		appLog.Debug("refresh complete")
	}
	r.runs.Add(1)
}
