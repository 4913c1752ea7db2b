package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// specParser accepts standard 5-field expressions and descriptors
// such as "@every 60s", "@hourly" or "@daily".
var specParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CronSchedule is a Schedule backed by a parsed cron expression.
// Examples:
//   - "*/5 * * * *"  - every 5 minutes
//   - "0 3 * * *"    - every day at 03:00
//   - "@every 60s"   - fixed interval
type CronSchedule struct {
	spec     string
	schedule cron.Schedule
	location *time.Location
}

// ParseCronSchedule parses a cron spec evaluated in loc (nil means UTC).
func ParseCronSchedule(spec string, loc *time.Location) (*CronSchedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty spec", ErrInvalidSchedule)
	}
	if loc == nil {
		loc = time.UTC
	}

	sched, err := specParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}
	return &CronSchedule{spec: spec, schedule: sched, location: loc}, nil
}

// MustParseCronSchedule is like ParseCronSchedule but panics on error.
func MustParseCronSchedule(spec string, loc *time.Location) *CronSchedule {
	s, err := ParseCronSchedule(spec, loc)
	if err != nil {
		panic(err)
	}
	return s
}

// Next returns the next activation time after t.
func (s *CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// String returns the original spec.
func (s *CronSchedule) String() string {
	return s.spec
}

// ParseSchedule turns a configuration value into a Schedule.
// A plain Go duration ("60s", "5m") becomes an IntervalSchedule;
// anything else is parsed as a cron spec.
func ParseSchedule(spec string, loc *time.Location) (Schedule, error) {
	if d, err := time.ParseDuration(strings.TrimSpace(spec)); err == nil {
		interval, err := NewIntervalSchedule(d)
		if err != nil {
			return nil, err
		}
		return interval, nil
	}

	cs, err := ParseCronSchedule(spec, loc)
	if err != nil {
		return nil, err
	}
	return cs, nil
}
