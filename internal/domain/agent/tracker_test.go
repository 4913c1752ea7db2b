package agent

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/pkg/timeutil"
)

func newTracker() (*Tracker, *timeutil.FakeClock, *notification.Recorder) {
	clock := timeutil.NewFakeClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	rec := notification.NewRecorder()
	return NewTracker(clock, rec, &sync.Mutex{}), clock, rec
}

func lastStatus(t *testing.T, rec *notification.Recorder) map[string]string {
	t.Helper()
	all := rec.All()
	require.NotEmpty(t, all)
	st, ok := all[len(all)-1].(notification.AgentStatus)
	require.True(t, ok, "last notification is %T", all[len(all)-1])
	return st.Statuses
}

func TestTracker_InitialIdle(t *testing.T) {
	tr, _, _ := newTracker()
	snap := tr.Snapshot()
	assert.Len(t, snap, 5)
	for _, name := range All() {
		assert.Equal(t, Idle, snap[name])
	}
}

func TestTracker_BeginThenReset(t *testing.T) {
	tr, clock, rec := newTracker()

	tr.Begin(Professor, Teaching)
	assert.Equal(t, "teaching", lastStatus(t, rec)["ProfessorAgent"])
	assert.Equal(t, "idle", lastStatus(t, rec)["RegistrarAgent"])

	tr.ResetAfter(Professor, 3*time.Second)
	clock.Advance(2 * time.Second)
	assert.Equal(t, Teaching, tr.Status(Professor))

	clock.Advance(time.Second)
	assert.Equal(t, Idle, tr.Status(Professor))
	assert.Equal(t, "idle", lastStatus(t, rec)["ProfessorAgent"])
	assert.False(t, tr.HasPending(Professor))
	assert.Len(t, rec.All(), 2)
}

func TestTracker_NewBeginOwnsWindow(t *testing.T) {
	tr, clock, rec := newTracker()

	tr.Begin(Registrar, Processing)
	tr.ResetAfter(Registrar, 2*time.Second)

	clock.Advance(time.Second)
	tr.Begin(Registrar, Processing)
	tr.ResetAfter(Registrar, 2*time.Second)

	// First window would have closed here.
	clock.Advance(time.Second)
	assert.Equal(t, Processing, tr.Status(Registrar))

	clock.Advance(time.Second)
	assert.Equal(t, Idle, tr.Status(Registrar))
	assert.Len(t, rec.All(), 3)
}

func TestTracker_IndependentAgents(t *testing.T) {
	tr, clock, _ := newTracker()

	tr.Begin(Professor, Evaluating)
	tr.ResetAfter(Professor, 2*time.Second)
	tr.Begin(Counselor, Counseling)
	tr.ResetAfter(Counselor, 3*time.Second)

	clock.Advance(2 * time.Second)
	snap := tr.Snapshot()
	assert.Equal(t, Idle, snap[Professor])
	assert.Equal(t, Counseling, snap[Counselor])
}

func TestTracker_Stop(t *testing.T) {
	tr, clock, rec := newTracker()
	tr.Begin(Mentor, Nudging)
	tr.ResetAfter(Mentor, time.Second)

	tr.Stop()
	clock.Advance(time.Minute)

	assert.Equal(t, Nudging, tr.Status(Mentor))
	assert.Len(t, rec.All(), 1)
	assert.Zero(t, clock.Pending())
}

func TestLabels(t *testing.T) {
	assert.True(t, Searching.IsValid())
	assert.False(t, Label("sleeping").IsValid())
	assert.False(t, Idle.IsBusy())
	assert.True(t, Nudging.IsBusy())
	assert.True(t, Mentor.IsValid())
	assert.False(t, Name("JanitorAgent").IsValid())
}
