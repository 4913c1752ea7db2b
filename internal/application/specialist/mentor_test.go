package specialist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campus-agents/campus-hub/internal/domain/agent"
)

func TestMentor_InactivityNudge(t *testing.T) {
	f := newFixture(t)
	m := NewMentor(f.deps, DefaultMentorConfig())
	f.rec.LastGoalDate = "2024-06-03"

	m.CheckActivity(f.rec, start.Add(5*time.Hour+40*time.Minute))

	assert.Equal(t, []string{"You haven't been active for 5 hours. Time to study!"}, f.sink.Messages())
	assert.Equal(t, agent.Nudging, f.statusOf(agent.Mentor))

	f.clock.Advance(time.Second)
	assert.Equal(t, agent.Idle, f.statusOf(agent.Mentor))
}

func TestMentor_NoNudgeWithinThreshold(t *testing.T) {
	f := newFixture(t)
	f.rec.LastGoalDate = "2024-06-03"

	NewMentor(f.deps, DefaultMentorConfig()).CheckActivity(f.rec, start.Add(4*time.Hour))

	assert.Empty(t, f.sink.All())
}

func TestMentor_DailyGoalsOncePerDay(t *testing.T) {
	f := newFixture(t)
	m := NewMentor(f.deps, DefaultMentorConfig())
	f.rec.ActiveCourses = []string{"AI Basics", "Data Structures"}
	f.rec.Stress = 55

	m.CheckActivity(f.rec, start.Add(time.Minute))
	assert.Equal(t, []string{"Today's goals:\n- Complete 1 quiz in AI Basics\n- Take a 15-minute break for mindfulness"}, f.sink.Messages())
	assert.Equal(t, "2024-06-03", f.rec.LastGoalDate)

	m.CheckActivity(f.rec, start.Add(2*time.Minute))
	assert.Len(t, f.sink.Messages(), 1)

	m.CheckActivity(f.rec, start.Add(24*time.Hour))
	// Next day: inactivity nudge plus new goals.
	assert.Len(t, f.sink.Messages(), 3)
}

func TestMentor_NoGoalsStillMarksDay(t *testing.T) {
	f := newFixture(t)
	m := NewMentor(f.deps, DefaultMentorConfig())

	m.CheckActivity(f.rec, start.Add(time.Minute))

	assert.Empty(t, f.sink.All())
	assert.Equal(t, "2024-06-03", f.rec.LastGoalDate)
}

func TestMentor_CalendarDayUsesLocation(t *testing.T) {
	f := newFixture(t)
	m := NewMentor(f.deps, MentorConfig{Location: time.FixedZone("UTC+5", 5*60*60)})
	f.rec.ActiveCourses = []string{"Data Structures"}
	f.rec.LastGoalDate = "2024-06-03"

	// 20:00 UTC is already June 4th at UTC+5.
	m.CheckActivity(f.rec, time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC))

	assert.Equal(t, "2024-06-04", f.rec.LastGoalDate)
	assert.Contains(t, f.sink.Messages(), "Today's goals:\n- Complete 1 quiz in Data Structures")
}

func TestDailyGoals(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, DailyGoals(f.rec))

	f.rec.Stress = 50
	assert.Empty(t, DailyGoals(f.rec))

	f.rec.Stress = 51
	assert.Equal(t, []string{"Take a 15-minute break for mindfulness"}, DailyGoals(f.rec))
}
