package specialist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/catalog"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/domain/student"
	"github.com/campus-agents/campus-hub/pkg/timeutil"
)

var start = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

type fixture struct {
	clock *timeutil.FakeClock
	sink  *notification.Recorder
	deps  Deps
	rec   *student.Record
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := timeutil.NewFakeClock(start)
	sink := notification.NewRecorder()
	rec, err := student.NewRecord(student.NewRecordParams{
		Name:      "Demo Student",
		Interests: []string{"ai", "robotics"},
		Now:       start,
	})
	require.NoError(t, err)

	return &fixture{
		clock: clock,
		sink:  sink,
		rec:   rec,
		deps: Deps{
			Catalog: catalog.MustDefault(),
			Tracker: agent.NewTracker(clock, sink, nil),
			Sink:    sink,
			Delays:  DefaultDelays(time.Second),
		},
	}
}

// payload returns everything except status snapshots.
func (f *fixture) payload() []notification.Notification {
	var out []notification.Notification
	for _, n := range f.sink.All() {
		if _, ok := n.(notification.AgentStatus); !ok {
			out = append(out, n)
		}
	}
	return out
}

func (f *fixture) statusOf(name agent.Name) agent.Label {
	return f.deps.Tracker.Status(name)
}
