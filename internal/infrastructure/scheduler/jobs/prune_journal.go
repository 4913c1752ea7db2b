package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campus-agents/campus-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE JOURNAL JOB
// ══════════════════════════════════════════════════════════════════════════════

// JournalPruner deletes journal entries that occurred before a cutoff.
type JournalPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// PruneJournalJob keeps the notification journal bounded.
type PruneJournalJob struct {
	journal JournalPruner
	logger  *logger.Logger
	config  PruneJournalConfig
	now     func() time.Time
}

// PruneJournalConfig contains configuration for the prune journal job.
type PruneJournalConfig struct {
	// Retention is how long entries are kept.
	Retention time.Duration

	// Timeout is the maximum duration of one prune.
	Timeout time.Duration
}

// DefaultPruneJournalConfig returns sensible defaults.
func DefaultPruneJournalConfig() PruneJournalConfig {
	return PruneJournalConfig{
		Retention: 7 * 24 * time.Hour,
		Timeout:   time.Minute,
	}
}

// NewPruneJournalJob creates a new prune journal job.
func NewPruneJournalJob(journal JournalPruner, log *logger.Logger, config PruneJournalConfig) *PruneJournalJob {
	if log == nil {
		log = logger.Nop()
	}
	return &PruneJournalJob{
		journal: journal,
		logger:  log.With(logger.Component("job.prune_journal")),
		config:  config,
		now:     time.Now,
	}
}

// Name returns the job name.
func (j *PruneJournalJob) Name() string {
	return "prune_journal"
}

// Description returns a human-readable description.
func (j *PruneJournalJob) Description() string {
	return "Deletes notification journal entries past retention"
}

// Run deletes expired entries.
func (j *PruneJournalJob) Run(ctx context.Context) error {
	if j.config.Retention <= 0 {
		return errors.New("prune_journal: retention must be positive")
	}
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	cutoff := j.now().Add(-j.config.Retention)
	deleted, err := j.journal.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune_journal: %w", err)
	}

	j.logger.Info("journal pruned",
		logger.Int64("deleted", deleted),
		logger.Time("cutoff", cutoff),
	)
	return nil
}
