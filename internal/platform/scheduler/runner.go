// Package scheduler runs the recurring market jobs on a cron timer.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// slowPass is the duration above which a pass is logged as slow.
const slowPass = 100 * time.Millisecond

// Job is one recurring task. A failed pass is logged and the timer keeps running.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner schedules jobs with robfig/cron. Overlapping passes of the same job
// are skipped and panics are recovered.
type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
}

// New creates a Runner whose jobs derive their context from baseCtx.
func New(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	logger := slogAdapter{}
	return &Runner{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		), cron.WithLogger(logger)),
		baseCtx: baseCtx,
	}
}

// Add schedules job every interval. Each pass is bounded by interval.
func (r *Runner) Add(job Job, interval time.Duration) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("job %s: interval must be positive, got %s", job.Name(), interval)
	}
	spec := fmt.Sprintf("@every %s", interval)
	id, err := r.cron.AddFunc(spec, func() { r.runOnce(job, interval) })
	if err != nil {
		return 0, fmt.Errorf("job %s: %w", job.Name(), err)
	}
	slog.Info("job scheduled", "job", job.Name(), "interval", interval)
	return id, nil
}

// runOnce executes a single pass with a timeout and logs its outcome.
func (r *Runner) runOnce(job Job, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(r.baseCtx, timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		slog.Error("job pass failed", "job", job.Name(), "elapsed", elapsed, "error", err)
		return
	}
	if elapsed > slowPass {
		slog.Warn("job pass was slow", "job", job.Name(), "elapsed", elapsed)
		return
	}
	slog.Debug("job pass finished", "job", job.Name(), "elapsed", elapsed)
}

// Start begins firing the scheduled jobs. It does not block.
func (r *Runner) Start() {
	slog.Info("scheduler started", "jobs", len(r.cron.Entries()))
	r.cron.Start()
}

// Stop stops the timer and waits for running passes to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	slog.Info("scheduler stopped")
}

// slogAdapter routes cron's internal logging to slog.
type slogAdapter struct{}

func (slogAdapter) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
