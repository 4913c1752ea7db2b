package specialist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/catalog"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/domain/shared"
)

func newRegistrar(f *fixture) *Registrar {
	return NewRegistrar(f.deps, NewCounselor(f.deps))
}

func TestRegistrar_FirstCourseRequestsLesson(t *testing.T) {
	f := newFixture(t)
	r := newRegistrar(f)

	res := r.RequestCourse(f.rec, "AI Basics")
	require.NoError(t, res.Outcome)

	assert.Equal(t, []string{"AI Basics"}, f.rec.ActiveCourses)
	assert.Equal(t, []FollowUp{{Kind: FollowDeliverLesson, Topic: "AI Basics"}}, res.FollowUps)
	assert.Equal(t, []notification.Notification{
		notification.AgentMessage{Agent: "RegistrarAgent", Text: "Successfully registered for AI Basics!", StudentID: f.rec.ID},
		notification.StudentUpdate{Field: "courses", Value: []string{"AI Basics"}, StudentID: f.rec.ID},
	}, f.payload())

	f.clock.Advance(2 * time.Second)
	assert.Equal(t, agent.Idle, f.statusOf(agent.Registrar))
}

func TestRegistrar_SecondCourseNoLesson(t *testing.T) {
	f := newFixture(t)
	r := newRegistrar(f)

	require.NoError(t, r.RequestCourse(f.rec, "AI Basics").Outcome)
	res := r.RequestCourse(f.rec, "Data Structures")

	require.NoError(t, res.Outcome)
	assert.Empty(t, res.FollowUps)
	assert.Equal(t, []string{"AI Basics", "Data Structures"}, f.rec.ActiveCourses)
}

func TestRegistrar_GraduateGetsNoOnboardingLesson(t *testing.T) {
	f := newFixture(t)
	r := newRegistrar(f)
	f.rec.CompletedCourses = []string{"AI Basics"}

	res := r.RequestCourse(f.rec, "Machine Learning 101")

	require.NoError(t, res.Outcome)
	assert.Equal(t, []string{"Machine Learning 101"}, f.rec.ActiveCourses)
	assert.Empty(t, res.FollowUps)
}

func TestRegistrar_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture)
		course  string
		message string
		kind    error
	}{
		{
			name:    "unknown course",
			course:  "Quantum Cooking",
			message: `Course "Quantum Cooking" not found in our catalog.`,
			kind:    shared.ErrNotFound,
		},
		{
			name:    "missing prerequisites",
			course:  "Deep Learning",
			message: "Cannot register for Deep Learning. Missing prerequisites: Machine Learning 101.",
			kind:    shared.ErrPolicyDenied,
		},
		{
			name:    "already active",
			prepare: func(f *fixture) { f.rec.ActiveCourses = []string{"Data Structures"} },
			course:  "Data Structures",
			message: "You are already registered for Data Structures.",
			kind:    shared.ErrNoOp,
		},
		{
			name: "stress gate",
			prepare: func(f *fixture) {
				f.rec.CompletedCourses = []string{"AI Basics"}
				f.rec.ActiveCourses = []string{"Robotics Fundamentals", "Data Structures"}
				f.rec.Stress = 75
			},
			course:  "Machine Learning 101",
			message: "Registration denied for Machine Learning 101. High stress level detected. Consider a lighter workload.",
			kind:    shared.ErrPolicyDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.prepare != nil {
				tt.prepare(f)
			}
			before := f.rec.Clone()

			res := newRegistrar(f).RequestCourse(f.rec, tt.course)

			assert.ErrorIs(t, res.Outcome, tt.kind)
			assert.Empty(t, res.FollowUps)
			assert.Equal(t, []string{tt.message}, f.sink.Messages())
			assert.Equal(t, before, f.rec, "record must be unchanged")

			f.clock.Advance(2 * time.Second)
			assert.Equal(t, agent.Idle, f.statusOf(agent.Registrar))
		})
	}
}

func TestRegistrar_CreditLimitScenario(t *testing.T) {
	f := newFixture(t)
	cat, err := catalog.Parse([]byte(`
courses:
  - {name: Statistics, credits: 3}
  - {name: Ethics, credits: 3}
  - {name: Linear Algebra, credits: 4}
  - {name: Compilers, credits: 4}
`))
	require.NoError(t, err)
	f.deps.Catalog = cat
	f.rec.ActiveCourses = []string{"Statistics", "Ethics", "Linear Algebra"}
	require.Equal(t, 10, cat.Credits(f.rec.ActiveCourses))

	res := newRegistrar(f).RequestCourse(f.rec, "Compilers")

	assert.ErrorIs(t, res.Outcome, shared.ErrPolicyDenied)
	assert.Equal(t, []string{"Registration denied for Compilers. Maximum credit limit (12) exceeded."}, f.sink.Messages())
	assert.Equal(t, []string{"Statistics", "Ethics", "Linear Algebra"}, f.rec.ActiveCourses)
}

func TestRegistrar_CompleteCourse(t *testing.T) {
	f := newFixture(t)
	r := newRegistrar(f)
	f.rec.ActiveCourses = []string{"AI Basics", "Data Structures"}
	f.rec.Stress = 20

	res := r.CompleteCourse(f.rec, "AI Basics")
	require.NoError(t, res.Outcome)
	assert.Empty(t, res.FollowUps)

	assert.Equal(t, []string{"Data Structures"}, f.rec.ActiveCourses)
	assert.Equal(t, []string{"AI Basics"}, f.rec.CompletedCourses)
	assert.Equal(t, 14, f.rec.Stress)

	assert.Equal(t, []notification.Notification{
		notification.AgentMessage{Agent: "RegistrarAgent", Text: "Congratulations! You've completed AI Basics.", StudentID: f.rec.ID},
		notification.StudentUpdate{Field: "courses", Value: []string{"Data Structures"}, StudentID: f.rec.ID},
		notification.StudentUpdate{Field: "completedCourses", Value: []string{"AI Basics"}, StudentID: f.rec.ID},
		notification.StudentUpdate{Field: "stressLevel", Value: 14, StudentID: f.rec.ID},
	}, f.payload())
}

func TestRegistrar_CompleteCourse_HighStressAsksForAdvice(t *testing.T) {
	f := newFixture(t)
	f.rec.ActiveCourses = []string{"Data Structures"}
	f.rec.Stress = 95

	res := newRegistrar(f).CompleteCourse(f.rec, "Data Structures")

	assert.Equal(t, 89, f.rec.Stress)
	assert.Equal(t, []FollowUp{{Kind: FollowWellnessAdvice}}, res.FollowUps)
}

func TestRegistrar_CompleteCourse_NotActive(t *testing.T) {
	f := newFixture(t)
	before := f.rec.Clone()

	res := newRegistrar(f).CompleteCourse(f.rec, "AI Basics")

	assert.ErrorIs(t, res.Outcome, shared.ErrNoOp)
	assert.Equal(t, before, f.rec)
	assert.Equal(t, []string{"You are not currently registered for AI Basics."}, f.sink.Messages())
}

func TestRegistrar_CompletedCourseCannotBeRetaken(t *testing.T) {
	f := newFixture(t)
	f.rec.CompletedCourses = []string{"AI Basics"}

	res := newRegistrar(f).RequestCourse(f.rec, "AI Basics")

	assert.ErrorIs(t, res.Outcome, shared.ErrNoOp)
	assert.Empty(t, f.rec.ActiveCourses)
}
