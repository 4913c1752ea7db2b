package student

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-agents/campus-hub/internal/domain/shared"
)

func newDemo(t *testing.T) *Record {
	t.Helper()
	rec, err := NewRecord(NewRecordParams{
		Name:      "Demo Student",
		Interests: []string{"ai", " robotics ", ""},
		Now:       time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return rec
}

func TestNewRecord(t *testing.T) {
	rec := newDemo(t)

	_, err := uuid.Parse(rec.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"ai", "robotics"}, rec.Interests)
	assert.Empty(t, rec.ActiveCourses)
	assert.Zero(t, rec.Stress)

	_, err = NewRecord(NewRecordParams{Name: "  "})
	assert.True(t, shared.IsValidation(err))

	_, err = NewRecord(NewRecordParams{ID: "not-a-uuid", Name: "x"})
	assert.True(t, errors.Is(err, shared.ErrInvalidID))
}

func TestEnrollAndComplete(t *testing.T) {
	rec := newDemo(t)

	require.NoError(t, rec.Enroll("AI Basics"))
	require.NoError(t, rec.Enroll("Data Structures"))
	assert.ErrorIs(t, rec.Enroll("AI Basics"), shared.ErrNoOp)
	assert.Equal(t, []string{"AI Basics", "Data Structures"}, rec.ActiveCourses)

	require.NoError(t, rec.Complete("AI Basics"))
	assert.False(t, rec.IsActive("AI Basics"))
	assert.True(t, rec.IsCompleted("AI Basics"))
	assert.Equal(t, []string{"Data Structures"}, rec.ActiveCourses)

	assert.ErrorIs(t, rec.Complete("AI Basics"), shared.ErrNoOp)
	assert.ErrorIs(t, rec.Enroll("AI Basics"), shared.ErrInvalidState)
}

func TestComplete_NeverInBothLists(t *testing.T) {
	rec := newDemo(t)
	courses := []string{"A", "B", "C", "D"}
	for _, c := range courses {
		require.NoError(t, rec.Enroll(c))
	}

	for _, c := range []string{"C", "A", "D", "B"} {
		require.NoError(t, rec.Complete(c))
		for _, name := range courses {
			assert.False(t, rec.IsActive(name) && rec.IsCompleted(name), name)
		}
	}
	assert.Empty(t, rec.ActiveCourses)
	assert.Equal(t, []string{"C", "A", "D", "B"}, rec.CompletedCourses)
}

func TestSetStress_Clamps(t *testing.T) {
	rec := newDemo(t)
	assert.Equal(t, 100, rec.SetStress(250))
	assert.Equal(t, 0, rec.SetStress(-3))
	assert.Equal(t, 42, rec.SetStress(42))
}

func TestMastery_OrderIndependent(t *testing.T) {
	answers := []bool{true, false, true, true, false, true, false, true}
	want := 5.0 / 8.0

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]bool{}, answers...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		rec := newDemo(t)
		var m Mastery
		for _, ok := range shuffled {
			m = rec.RecordAnswer("AI Basics", ok)
		}
		assert.Equal(t, Mastery{Correct: 5, Total: 8}, m)
		assert.InDelta(t, want, m.Fraction(), 1e-9)
	}

	assert.Zero(t, Mastery{}.Fraction())
}

func TestClone_IsDeep(t *testing.T) {
	rec := newDemo(t)
	require.NoError(t, rec.Enroll("AI Basics"))
	rec.RecordAnswer("AI Basics", true)

	c := rec.Clone()
	require.NoError(t, c.Enroll("Data Structures"))
	c.RecordAnswer("AI Basics", false)

	assert.Equal(t, []string{"AI Basics"}, rec.ActiveCourses)
	assert.Equal(t, Mastery{Correct: 1, Total: 1}, rec.MasteryFor("AI Basics"))
}

func TestMissingPrerequisites(t *testing.T) {
	rec := newDemo(t)
	rec.CompletedCourses = []string{"AI Basics"}
	assert.Nil(t, rec.MissingPrerequisites([]string{"AI Basics"}))
	assert.Equal(t, []string{"Machine Learning 101"}, rec.MissingPrerequisites([]string{"AI Basics", "Machine Learning 101"}))
}
