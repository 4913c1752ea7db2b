package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func TestFakeClock_AdvanceRunsDueTasksInOrder(t *testing.T) {
	clock := NewFakeClock(epoch)
	var order []string

	clock.AfterFunc(3*time.Second, func() { order = append(order, "three") })
	clock.AfterFunc(1*time.Second, func() { order = append(order, "one") })
	clock.AfterFunc(2*time.Second, func() { order = append(order, "two") })

	clock.Advance(2 * time.Second)
	assert.Equal(t, []string{"one", "two"}, order)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, []string{"one", "two", "three"}, order)
	assert.Equal(t, epoch.Add(3*time.Second), clock.Now())
}

func TestFakeClock_Cancel(t *testing.T) {
	clock := NewFakeClock(epoch)
	fired := false

	h := clock.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, h.Cancel())
	assert.False(t, h.Cancel())

	clock.Advance(time.Minute)
	assert.False(t, fired)
	assert.Zero(t, clock.Pending())
}

func TestFakeClock_TaskSchedulingTask(t *testing.T) {
	clock := NewFakeClock(epoch)
	var seen []time.Time

	clock.AfterFunc(time.Second, func() {
		seen = append(seen, clock.Now())
		clock.AfterFunc(time.Second, func() {
			seen = append(seen, clock.Now())
		})
	})

	clock.Advance(5 * time.Second)
	assert.Equal(t, []time.Time{epoch.Add(time.Second), epoch.Add(2 * time.Second)}, seen)
}

func TestFakeClock_SameDueTimeKeepsSchedulingOrder(t *testing.T) {
	clock := NewFakeClock(epoch)
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		clock.AfterFunc(time.Second, func() { order = append(order, i) })
	}

	clock.Advance(time.Second)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestIsSameDay_UsesCampusTimezone(t *testing.T) {
	prev := CampusTZ
	t.Cleanup(func() { CampusTZ = prev })

	SetLocation(time.FixedZone("UTC+5", 5*60*60))

	late := time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC) // 23:30 local
	later := time.Date(2024, 6, 1, 19, 30, 0, 0, time.UTC) // 00:30 next day local

	assert.False(t, IsSameDay(late, later))
	assert.Equal(t, "2024-06-02", DateKey(later))
}

func TestWholeHours(t *testing.T) {
	assert.Equal(t, 0, WholeHours(-time.Hour))
	assert.Equal(t, 4, WholeHours(4*time.Hour+59*time.Minute))
	assert.Equal(t, "5 hours ago", FormatRelative(5*time.Hour+10*time.Minute))
}
