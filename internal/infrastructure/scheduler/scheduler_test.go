package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job " + j.name }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func mustInterval(t *testing.T, d time.Duration) *IntervalSchedule {
	t.Helper()
	s, err := NewIntervalSchedule(d)
	require.NoError(t, err)
	return s
}

func fastScheduler() *Scheduler {
	return NewScheduler(SchedulerConfig{TickInterval: 5 * time.Millisecond})
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := fastScheduler()
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, mustInterval(t, 10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	info, err := s.GetJobInfo("tick")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.RunCount, int64(2))
	assert.Equal(t, "@every 10ms", info.Schedule)
}

func TestScheduler_NoOverlap(t *testing.T) {
	s := fastScheduler()
	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, mustInterval(t, time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	require.NoError(t, s.Stop())
}

func TestScheduler_StopCancelsRunningJobs(t *testing.T) {
	s := fastScheduler()
	job := &countingJob{name: "blocked", block: make(chan struct{})}
	require.NoError(t, s.Register(job, mustInterval(t, time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.Stop())

	history := s.GetHistory(0)
	require.Len(t, history, 1)
	assert.ErrorIs(t, history[0].Error, context.Canceled)
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := fastScheduler()
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestScheduler_RunBlocksUntilCancelled(t *testing.T) {
	s := fastScheduler()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, s.IsRunning, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestScheduler_Registration(t *testing.T) {
	s := fastScheduler()
	job := &countingJob{name: "dup"}
	every := mustInterval(t, time.Minute)

	assert.ErrorIs(t, s.Register(nil, every), ErrNilJob)
	assert.ErrorIs(t, s.Register(job, nil), ErrNilSchedule)
	require.NoError(t, s.Register(job, every))
	assert.ErrorIs(t, s.Register(job, every), ErrJobAlreadyExists)

	require.NoError(t, s.DisableJob("dup"))
	info, _ := s.GetJobInfo("dup")
	assert.False(t, info.Enabled)
	require.NoError(t, s.EnableJob("dup"))

	require.NoError(t, s.Unregister("dup"))
	assert.ErrorIs(t, s.Unregister("dup"), ErrJobNotFound)
	assert.ErrorIs(t, s.DisableJob("dup"), ErrJobNotFound)
}

func TestScheduler_RunNowAndHooks(t *testing.T) {
	s := fastScheduler()
	failing := &countingJob{name: "bad", err: errors.New("boom")}
	ok := &countingJob{name: "good"}
	require.NoError(t, s.Register(failing, mustInterval(t, time.Hour)))
	require.NoError(t, s.Register(ok, mustInterval(t, time.Hour)))

	var started, failed []string
	var completed []JobResult
	s.OnJobStart(func(name string) { started = append(started, name) })
	s.OnJobError(func(name string, _ error) { failed = append(failed, name) })
	s.OnJobComplete(func(r JobResult) { completed = append(completed, r) })

	res, err := s.RunNow(context.Background(), "good")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	_, err = s.RunNow(context.Background(), "bad")
	assert.EqualError(t, err, "boom")

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.Equal(t, []string{"good", "bad"}, started)
	assert.Equal(t, []string{"bad"}, failed)
	assert.Len(t, completed, 2)

	require.Len(t, completed, 2)
	assert.True(t, completed[0].Success)
	assert.False(t, completed[1].Success)

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "bad", jobs[0].Name)
	assert.Equal(t, int64(1), jobs[0].FailCount)
}

func TestScheduler_HistoryIsBounded(t *testing.T) {
	s := NewScheduler(SchedulerConfig{MaxHistorySize: 3})
	job := &countingJob{name: "j"}
	require.NoError(t, s.Register(job, mustInterval(t, time.Hour)))

	for i := 0; i < 5; i++ {
		_, _ = s.RunNow(context.Background(), "j")
	}
	assert.Len(t, s.GetHistory(0), 3)
	assert.Len(t, s.GetHistory(2), 2)
}
