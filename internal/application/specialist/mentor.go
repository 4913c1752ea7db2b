package specialist

import (
	"fmt"
	"strings"
	"time"

	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/student"
	"github.com/campus-agents/campus-hub/pkg/logger"
	"github.com/campus-agents/campus-hub/pkg/timeutil"
)

// DefaultInactivityThreshold - простой, после которого студент получает напоминание.
const DefaultInactivityThreshold = 4 * time.Hour

// mindfulnessAbove - стресс, при котором в цели добавляется перерыв.
const mindfulnessAbove = 50

// MentorConfig содержит настройки наставника.
type MentorConfig struct {
	// InactivityThreshold - простой, после которого отправляется напоминание.
	InactivityThreshold time.Duration

	// Location - часовой пояс для определения календарного дня.
	Location *time.Location
}

// DefaultMentorConfig возвращает настройки по умолчанию.
func DefaultMentorConfig() MentorConfig {
	return MentorConfig{
		InactivityThreshold: DefaultInactivityThreshold,
		Location:            time.UTC,
	}
}

// Mentor - специалист по мониторингу активности.
type Mentor struct {
	deps   Deps
	config MentorConfig
}

// NewMentor создаёт наставника.
func NewMentor(deps Deps, config MentorConfig) *Mentor {
	if config.InactivityThreshold <= 0 {
		config.InactivityThreshold = DefaultInactivityThreshold
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Mentor{deps: deps, config: config}
}

// CheckActivity выполняется по расписанию независимо от действий студента.
//
// Если простой превышает порог - напоминание с числом полных часов.
// Раз в календарный день формируются цели; сообщение отправляется,
// только если набралась хотя бы одна цель. День отмечается в любом случае.
func (m *Mentor) CheckActivity(rec *student.Record, now time.Time) Result {
	idle := now.Sub(rec.LastActivity)
	if idle > m.config.InactivityThreshold {
		m.nudge(rec, fmt.Sprintf("You haven't been active for %d hours. Time to study!", timeutil.WholeHours(idle)))
	}

	today := timeutil.DateKeyIn(now, m.config.Location)
	if rec.LastGoalDate != today {
		if goals := DailyGoals(rec); len(goals) > 0 {
			m.nudge(rec, "Today's goals:\n- "+strings.Join(goals, "\n- "))
		}
		rec.LastGoalDate = today
		m.deps.log(agent.Mentor).Debug("daily goals evaluated", logger.String("day", today))
	}

	return Result{}
}

// DailyGoals формирует цели на день.
func DailyGoals(rec *student.Record) []string {
	var goals []string
	if first, ok := rec.FirstActive(); ok {
		goals = append(goals, fmt.Sprintf("Complete 1 quiz in %s", first))
	}
	if rec.Stress > mindfulnessAbove {
		goals = append(goals, "Take a 15-minute break for mindfulness")
	}
	return goals
}

func (m *Mentor) nudge(rec *student.Record, text string) {
	m.deps.Tracker.Begin(agent.Mentor, agent.Nudging)
	m.deps.say(agent.Mentor, rec, text)
	m.deps.Tracker.ResetAfter(agent.Mentor, m.deps.Delays.Nudge)
}
