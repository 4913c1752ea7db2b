// Package specialist содержит пять специалистов кампуса.
//
// Каждый специалист отвечает за одну область, читает и изменяет запись
// студента, консультируется с моделью нагрузки и отправляет уведомления.
// Вызовы других специалистов не выполняются напрямую: специалист
// возвращает список FollowUp, который оркестратор воспроизводит после
// завершения текущего вызова.
//
// Специалисты не потокобезопасны сами по себе: оркестратор вызывает их
// под единой блокировкой.
package specialist

import (
	"time"

	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/catalog"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/domain/student"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FOLLOW-UPS
// ══════════════════════════════════════════════════════════════════════════════

// FollowUpKind - вид отложенного межагентного вызова.
type FollowUpKind string

const (
	// FollowDeliverLesson - Professor выдаёт урок по Topic.
	FollowDeliverLesson FollowUpKind = "deliver-lesson"
	// FollowNotifyProgress - Counselor оценивает прогресс по Topic.
	FollowNotifyProgress FollowUpKind = "notify-progress"
	// FollowWellnessAdvice - Counselor даёт совет по благополучию.
	FollowWellnessAdvice FollowUpKind = "wellness-advice"
)

// FollowUp - вызов другого специалиста, который оркестратор выполнит
// синхронно, до возврата из Dispatch.
type FollowUp struct {
	Kind     FollowUpKind
	Topic    string
	Fraction float64
}

// Result - итог одного вызова специалиста.
type Result struct {
	// Outcome - доменный исход: nil при успехе, иначе ошибка из shared
	// (not-found, policy-denied, no-op). Наружу как ошибка не возвращается,
	// студент уже получил сообщение.
	Outcome error

	// FollowUps - межагентные вызовы в порядке выполнения.
	FollowUps []FollowUp
}

// ══════════════════════════════════════════════════════════════════════════════
// DELAYS
// ══════════════════════════════════════════════════════════════════════════════

// Delays - окна "занят" перед возвратом статуса в Idle.
type Delays struct {
	Lesson       time.Duration
	Answer       time.Duration
	Registration time.Duration
	Counseling   time.Duration
	Events       time.Duration
	Nudge        time.Duration
}

// DefaultDelays возвращает окна в единицах unit.
func DefaultDelays(unit time.Duration) Delays {
	return Delays{
		Lesson:       3 * unit,
		Answer:       2 * unit,
		Registration: 2 * unit,
		Counseling:   3 * unit,
		Events:       2 * unit,
		Nudge:        1 * unit,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Deps - общий контекст всех специалистов.
type Deps struct {
	Catalog *catalog.Catalog
	Tracker *agent.Tracker
	Sink    notification.Sink
	Delays  Delays
	Logger  *logger.Logger
}

func (d Deps) say(from agent.Name, rec *student.Record, text string) {
	d.Sink.Emit(notification.AgentMessage{Agent: from.String(), Text: text, StudentID: rec.ID})
}

func (d Deps) update(rec *student.Record, field string, value any) {
	d.Sink.Emit(notification.StudentUpdate{Field: field, Value: value, StudentID: rec.ID})
}

func (d Deps) log(name agent.Name) *logger.Logger {
	if d.Logger == nil {
		return logger.Nop()
	}
	return d.Logger.With(logger.Agent(name.String()))
}

func snapshot(list []string) []string {
	return append([]string{}, list...)
}
