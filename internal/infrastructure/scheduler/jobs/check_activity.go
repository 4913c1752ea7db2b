// Package jobs contains implementations of scheduled jobs for Campus Hub.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/campus-agents/campus-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK ACTIVITY JOB
// ══════════════════════════════════════════════════════════════════════════════

// ActivityChecker runs the mentor's activity check.
type ActivityChecker interface {
	CheckActivity(ctx context.Context) error
}

// CheckActivityJob drives the activity monitor on its fixed cadence,
// independent of student actions.
type CheckActivityJob struct {
	checker ActivityChecker
	logger  *logger.Logger
	config  CheckActivityConfig

	runs     atomic.Int64
	failures atomic.Int64
	lastRun  atomic.Value // time.Time
}

// CheckActivityConfig contains configuration for the check activity job.
type CheckActivityConfig struct {
	// Timeout is the maximum duration of one check.
	Timeout time.Duration
}

// DefaultCheckActivityConfig returns sensible defaults.
func DefaultCheckActivityConfig() CheckActivityConfig {
	return CheckActivityConfig{Timeout: 10 * time.Second}
}

// NewCheckActivityJob creates a new check activity job.
func NewCheckActivityJob(checker ActivityChecker, log *logger.Logger, config CheckActivityConfig) *CheckActivityJob {
	if log == nil {
		log = logger.Nop()
	}
	return &CheckActivityJob{
		checker: checker,
		logger:  log.With(logger.Component("job.check_activity")),
		config:  config,
	}
}

// Name returns the job name.
func (j *CheckActivityJob) Name() string {
	return "check_activity"
}

// Description returns a human-readable description.
func (j *CheckActivityJob) Description() string {
	return "Nudges the student after inactivity and posts daily goals"
}

// Run executes one activity check.
func (j *CheckActivityJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	j.runs.Add(1)
	j.lastRun.Store(time.Now())

	if err := j.checker.CheckActivity(ctx); err != nil {
		j.failures.Add(1)
		return fmt.Errorf("check_activity: %w", err)
	}
	return nil
}

// Stats returns run and failure counts.
func (j *CheckActivityJob) Stats() (runs, failures int64) {
	return j.runs.Load(), j.failures.Load()
}

// LastRun returns the start of the last run, zero if never run.
func (j *CheckActivityJob) LastRun() time.Time {
	t, _ := j.lastRun.Load().(time.Time)
	return t
}
