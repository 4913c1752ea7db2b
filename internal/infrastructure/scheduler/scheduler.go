// Package scheduler implements background job scheduling for Campus Hub.
// It drives the activity monitor cadence and housekeeping jobs such as
// notification journal pruning.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/campus-agents/campus-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// Schedule defines when a job should run.
type Schedule interface {
	// Next returns the next time the job should run after the given time.
	Next(t time.Time) time.Time

	// String returns a human-readable representation of the schedule.
	String() string
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
	Manual      bool
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler manages and executes scheduled jobs.
// A job never overlaps with itself: a due job that is still running is skipped.
type Scheduler struct {
	mu sync.RWMutex

	// Configuration
	logger       *logger.Logger
	timezone     *time.Location
	tickInterval time.Duration
	maxHistory   int
	now          func() time.Time

	// State
	jobs      map[string]*scheduledJob
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time

	// History
	lastRuns   map[string]*JobResult
	runHistory []JobResult

	// Hooks
	onJobStart    func(jobName string)
	onJobComplete func(result JobResult)
	onJobError    func(jobName string, err error)
}

// scheduledJob wraps a Job with scheduling information.
type scheduledJob struct {
	job       Job
	schedule  Schedule
	enabled   bool
	inFlight  bool
	lastRun   time.Time
	nextRun   time.Time
	runCount  int64
	failCount int64
}

// SchedulerConfig contains configuration for the Scheduler.
type SchedulerConfig struct {
	// Logger for structured logging.
	Logger *logger.Logger

	// Timezone for schedule calculations (default: UTC).
	Timezone *time.Location

	// TickInterval is how often due jobs are checked (default: 1s).
	TickInterval time.Duration

	// MaxHistorySize is the maximum number of job results to keep in history.
	MaxHistorySize int

	// Now overrides the time source. Nil means time.Now.
	Now func() time.Time
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Timezone:       time.UTC,
		TickInterval:   time.Second,
		MaxHistorySize: 1000,
	}
}

// NewScheduler creates a new Scheduler with the given configuration.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.MaxHistorySize <= 0 {
		config.MaxHistorySize = 1000
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Scheduler{
		logger:       config.Logger.With(logger.Component("scheduler")),
		timezone:     config.Timezone,
		tickInterval: config.TickInterval,
		maxHistory:   config.MaxHistorySize,
		now:          config.Now,
		jobs:         make(map[string]*scheduledJob),
		lastRuns:     make(map[string]*JobResult),
		runHistory:   make([]JobResult, 0, 64),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// Register adds a job to the scheduler with the given schedule.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	sj := &scheduledJob{
		job:      job,
		schedule: schedule,
		enabled:  true,
		nextRun:  schedule.Next(s.now().In(s.timezone)),
	}
	s.jobs[name] = sj

	s.logger.Info("job registered",
		logger.String("job", name),
		logger.String("schedule", schedule.String()),
		logger.String("next_run", sj.nextRun.Format(time.RFC3339)),
	)
	return nil
}

// Unregister removes a job from the scheduler.
func (s *Scheduler) Unregister(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobName]; !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	delete(s.jobs, jobName)
	s.logger.Info("job unregistered", logger.String("job", jobName))
	return nil
}

// EnableJob enables a job by name.
func (s *Scheduler) EnableJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	sj.enabled = true
	sj.nextRun = sj.schedule.Next(s.now().In(s.timezone))
	return nil
}

// DisableJob disables a job by name.
func (s *Scheduler) DisableJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	sj.enabled = false
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.startedAt = s.now()
	count := len(s.jobs)
	s.mu.Unlock()

	s.logger.Info("scheduler started", logger.Int("jobs_count", count))

	s.wg.Add(1)
	go s.runLoop()
	return nil
}

// Stop gracefully stops the scheduler.
// It waits for all currently running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info("scheduler stopped", logger.Duration("uptime", s.now().Sub(s.startedAt)))
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := s.Stop(); err != nil && !errors.Is(err, ErrSchedulerNotRunning) {
		return err
	}
	return nil
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER LOOP
// ══════════════════════════════════════════════════════════════════════════════

func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunJobs()
		}
	}
}

// checkAndRunJobs starts every enabled job whose next run has passed.
func (s *Scheduler) checkAndRunJobs() {
	now := s.now().In(s.timezone)

	s.mu.Lock()
	due := make([]*scheduledJob, 0)
	for _, sj := range s.jobs {
		if sj.enabled && !sj.inFlight && !sj.nextRun.IsZero() && !now.Before(sj.nextRun) {
			sj.inFlight = true
			sj.lastRun = now
			sj.nextRun = sj.schedule.Next(now)
			sj.runCount++
			due = append(due, sj)
		}
	}
	ctx := s.ctx
	s.mu.Unlock()

	for _, sj := range due {
		s.wg.Add(1)
		go func(sj *scheduledJob) {
			defer s.wg.Done()
			s.execute(ctx, sj, false)
		}(sj)
	}
}

// execute runs a job and records the result.
func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob, manual bool) JobResult {
	jobName := sj.job.Name()

	s.mu.RLock()
	onStart, onComplete, onError := s.onJobStart, s.onJobComplete, s.onJobError
	s.mu.RUnlock()

	if onStart != nil {
		onStart(jobName)
	}
	s.logger.Debug("job started", logger.String("job", jobName), logger.Bool("manual", manual))

	startedAt := s.now()
	err := sj.job.Run(ctx)
	completedAt := s.now()

	result := JobResult{
		JobName:     jobName,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Error:       err,
		Manual:      manual,
	}

	s.mu.Lock()
	if !manual {
		sj.inFlight = false
	}
	if err != nil {
		sj.failCount++
	}
	s.lastRuns[jobName] = &result
	s.addToHistory(result)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed",
			logger.String("job", jobName),
			logger.Duration("duration", result.Duration),
			logger.Err(err),
		)
		if onError != nil {
			onError(jobName, err)
		}
	} else {
		s.logger.Debug("job completed",
			logger.String("job", jobName),
			logger.Duration("duration", result.Duration),
		)
	}

	if onComplete != nil {
		onComplete(result)
	}
	return result
}

// addToHistory adds a result to the run history with size limit.
// Caller must hold s.mu.
func (s *Scheduler) addToHistory(result JobResult) {
	s.runHistory = append(s.runHistory, result)
	if len(s.runHistory) > s.maxHistory {
		s.runHistory = s.runHistory[len(s.runHistory)-s.maxHistory:]
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MANUAL EXECUTION
// ══════════════════════════════════════════════════════════════════════════════

// RunNow immediately executes a job by name, ignoring its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (*JobResult, error) {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	result := s.execute(ctx, sj, true)
	return &result, result.Error
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS & INFO
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo contains information about a registered job.
type JobInfo struct {
	Name        string
	Description string
	Enabled     bool
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
	RunCount    int64
	FailCount   int64
	LastResult  *JobResult
}

// ListJobs returns information about all registered jobs, sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, sj := range s.jobs {
		infos = append(infos, s.infoLocked(name, sj))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// GetJobInfo returns information about a specific job.
func (s *Scheduler) GetJobInfo(jobName string) (*JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	info := s.infoLocked(jobName, sj)
	return &info, nil
}

func (s *Scheduler) infoLocked(name string, sj *scheduledJob) JobInfo {
	return JobInfo{
		Name:        name,
		Description: sj.job.Description(),
		Enabled:     sj.enabled,
		Schedule:    sj.schedule.String(),
		LastRun:     sj.lastRun,
		NextRun:     sj.nextRun,
		RunCount:    sj.runCount,
		FailCount:   sj.failCount,
		LastResult:  s.lastRuns[name],
	}
}

// GetHistory returns the recent job execution history.
func (s *Scheduler) GetHistory(limit int) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.runHistory) {
		limit = len(s.runHistory)
	}
	start := len(s.runHistory) - limit
	result := make([]JobResult, limit)
	copy(result, s.runHistory[start:])
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// HOOKS
// ══════════════════════════════════════════════════════════════════════════════

// OnJobStart sets a callback to be called when a job starts.
func (s *Scheduler) OnJobStart(fn func(jobName string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onJobStart = fn
}

// OnJobComplete sets a callback to be called when a job completes.
func (s *Scheduler) OnJobComplete(fn func(result JobResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onJobComplete = fn
}

// OnJobError sets a callback to be called when a job fails.
func (s *Scheduler) OnJobError(fn func(jobName string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onJobError = fn
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNilJob is returned when trying to register a nil job.
	ErrNilJob = errors.New("job cannot be nil")

	// ErrNilSchedule is returned when trying to register a job with nil schedule.
	ErrNilSchedule = errors.New("schedule cannot be nil")

	// ErrJobAlreadyExists is returned when a job with the same name already exists.
	ErrJobAlreadyExists = errors.New("job already exists")

	// ErrJobNotFound is returned when a job is not found.
	ErrJobNotFound = errors.New("job not found")

	// ErrSchedulerAlreadyRunning is returned when Start is called on a running scheduler.
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")

	// ErrSchedulerNotRunning is returned when Stop is called on a stopped scheduler.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidSchedule is returned when a schedule spec cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid schedule")
)
