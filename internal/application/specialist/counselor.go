package specialist

import (
	"fmt"

	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/domain/student"
	"github.com/campus-agents/campus-hub/internal/domain/workload"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// Пороги советов по благополучию (строго больше).
const (
	strongAdviceAbove   = 80
	moderateAdviceAbove = 60

	// progressAdviceAbove - доля правильных ответов, после которой
	// предлагается следующий курс.
	progressAdviceAbove = 0.8

	// overloadedCourses - число активных курсов, после которого оно
	// упоминается в предложении помощи.
	overloadedCourses = 3
)

const (
	adviceStrong   = "You seem very stressed. I strongly recommend reducing your course load and taking time for self-care."
	adviceModerate = "You appear somewhat stressed. Consider taking breaks between study sessions."
	adviceAffirm   = "Your stress levels seem manageable. Keep up the good work!"
	offerHelp      = "Would you like me to help you drop a course or find wellness events?"
)

// Counselor - специалист по нагрузке, стрессу и прогрессу.
type Counselor struct {
	deps Deps
}

// NewCounselor создаёт консультанта.
func NewCounselor(deps Deps) *Counselor {
	return &Counselor{deps: deps}
}

// CheckWorkload делегирует проверку модели нагрузки. Только чтение.
func (c *Counselor) CheckWorkload(rec *student.Record, additionalCredits int) workload.Decision {
	return workload.Evaluate(rec, c.deps.Catalog, additionalCredits)
}

// ReportStress принимает самооценку стресса: значение записывается
// напрямую (с ограничением диапазона), минуя правило постепенного изменения.
func (c *Counselor) ReportStress(rec *student.Record, level int, message string) Result {
	c.deps.Tracker.Begin(agent.Counselor, agent.Counseling)
	defer c.deps.Tracker.ResetAfter(agent.Counselor, c.deps.Delays.Counseling)

	stress := rec.SetStress(level)
	c.deps.update(rec, notification.FieldStressLevel, stress)

	c.deps.log(agent.Counselor).Info("stress reported",
		logger.Stress(stress),
		logger.Bool("clamped", stress != level),
	)

	c.WellnessAdvice(rec, message)
	return Result{}
}

// WellnessAdvice отправляет совет по текущему уровню стресса. При высоком
// стрессе добавляется второе сообщение с предложением помощи.
func (c *Counselor) WellnessAdvice(rec *student.Record, message string) {
	var advice string
	switch {
	case rec.Stress > strongAdviceAbove:
		advice = adviceStrong
	case rec.Stress > moderateAdviceAbove:
		advice = adviceModerate
	default:
		advice = adviceAffirm
	}

	if message != "" {
		advice += fmt.Sprintf(" You mentioned: \"%s\". I hear you.", message)
	}
	c.deps.say(agent.Counselor, rec, advice)

	if !workload.NeedsWellnessAdvice(rec.Stress) {
		return
	}

	offer := offerHelp
	if n := len(rec.ActiveCourses); n > overloadedCourses {
		offer = fmt.Sprintf("You're taking %d courses. %s", n, offerHelp)
	}
	c.deps.say(agent.Counselor, rec, offer)
}

// NotifyProgress предлагает следующий курс, если тема освоена.
// Запись не изменяется, статус не меняется.
func (c *Counselor) NotifyProgress(rec *student.Record, topic string, fraction float64) Result {
	if fraction <= progressAdviceAbove {
		return Result{}
	}

	next, ok := c.deps.Catalog.Successor(topic)
	if !ok || rec.IsActive(next) || rec.IsCompleted(next) {
		return Result{}
	}

	c.deps.say(agent.Counselor, rec, fmt.Sprintf("Great progress in %s! Would you like to register for %s next?", topic, next))
	return Result{}
}
