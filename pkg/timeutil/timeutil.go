// Package timeutil provides timezone and clock utilities for the campus engine.
// Calendar-day logic (daily goals) is evaluated in the campus timezone, and
// every delayed task in the core goes through a Clock so tests can drive
// virtual time.
package timeutil

import (
	"fmt"
	"time"
)

// CampusTZ is the timezone used for calendar-day decisions.
// It defaults to UTC and is overridden from configuration at startup.
var CampusTZ = time.UTC

// SetLocation replaces the campus timezone. A nil location is ignored.
func SetLocation(loc *time.Location) {
	if loc != nil {
		CampusTZ = loc
	}
}

// ToCampus converts a time to the campus timezone.
func ToCampus(t time.Time) time.Time {
	return t.In(CampusTZ)
}

// StartOfDay returns the start of the day (00:00:00) in the campus timezone.
func StartOfDay(t time.Time) time.Time {
	c := ToCampus(t)
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, CampusTZ)
}

// IsSameDay checks if two times fall on the same campus calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	c1, c2 := ToCampus(t1), ToCampus(t2)
	return c1.Year() == c2.Year() && c1.YearDay() == c2.YearDay()
}

// DateKey returns the campus calendar day of t as "2006-01-02".
func DateKey(t time.Time) string {
	return DateKeyIn(t, CampusTZ)
}

// DateKeyIn returns the calendar day of t in loc. A nil loc means UTC.
func DateKeyIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(FormatDate)
}

// WholeHours returns the number of complete hours in d, floored at zero.
func WholeHours(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Hour)
}

// Common format layouts.
const (
	FormatDate     = "2006-01-02"
	FormatTime     = "15:04"
	FormatDateTime = "2006-01-02 15:04"
)

// FormatRelative formats an elapsed duration for humans ("3 hours ago").
func FormatRelative(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", WholeHours(d))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}
