package specialist

import (
	"strings"

	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/catalog"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/domain/shared"
	"github.com/campus-agents/campus-hub/internal/domain/student"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// MaxRecommendations - максимум мероприятий в одной подборке.
const MaxRecommendations = 3

const noEventsMessage = "No events match your current interests and schedule."

// EventMatcher - специалист по подбору мероприятий.
type EventMatcher struct {
	deps Deps
}

// NewEventMatcher создаёт специалиста по мероприятиям.
func NewEventMatcher(deps Deps) *EventMatcher {
	return &EventMatcher{deps: deps}
}

// Recommend отправляет до трёх подходящих мероприятий в порядке каталога.
func (e *EventMatcher) Recommend(rec *student.Record) Result {
	e.deps.Tracker.Begin(agent.Events, agent.Searching)
	defer e.deps.Tracker.ResetAfter(agent.Events, e.deps.Delays.Events)

	matches := MatchEvents(rec, e.deps.Catalog.Events(), MaxRecommendations)
	if len(matches) == 0 {
		e.deps.say(agent.Events, rec, noEventsMessage)
		return Result{Outcome: shared.NewDomainError("events", "Recommend", shared.ErrNotFound, "no matching events")}
	}

	e.deps.Sink.Emit(notification.EventRecommendations{
		Agent:     agent.Events.String(),
		Events:    matches,
		StudentID: rec.ID,
	})
	e.deps.log(agent.Events).Debug("events recommended", logger.Int("count", len(matches)))
	return Result{}
}

// MatchEvents отбирает мероприятия, у которых хотя бы один тег совпадает
// с интересом студента или входит подстрокой в название активного курса.
// Сравнение без учёта регистра; результат обрезается до limit.
func MatchEvents(rec *student.Record, events []catalog.Event, limit int) []catalog.Event {
	courses := make([]string, len(rec.ActiveCourses))
	for i, c := range rec.ActiveCourses {
		courses[i] = strings.ToLower(c)
	}

	var out []catalog.Event
	for _, ev := range events {
		if len(out) >= limit {
			break
		}
		if matchesInterest(ev, rec.Interests) || matchesCourse(ev, courses) {
			out = append(out, ev)
		}
	}
	return out
}

func matchesInterest(ev catalog.Event, interests []string) bool {
	for _, tag := range ev.Tags {
		for _, in := range interests {
			if strings.EqualFold(tag, in) {
				return true
			}
		}
	}
	return false
}

func matchesCourse(ev catalog.Event, lowerCourses []string) bool {
	for _, tag := range ev.Tags {
		t := strings.ToLower(tag)
		if t == "" {
			continue
		}
		for _, c := range lowerCourses {
			if strings.Contains(c, t) {
				return true
			}
		}
	}
	return false
}
