package specialist

import (
	"fmt"
	"strings"

	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/domain/shared"
	"github.com/campus-agents/campus-hub/internal/domain/student"
	"github.com/campus-agents/campus-hub/internal/domain/workload"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// Registrar - специалист по записи на курсы.
type Registrar struct {
	deps      Deps
	counselor *Counselor
}

// NewRegistrar создаёт регистратора. Проверку нагрузки он делегирует консультанту.
func NewRegistrar(deps Deps, counselor *Counselor) *Registrar {
	return &Registrar{deps: deps, counselor: counselor}
}

// RequestCourse записывает студента на курс.
//
// Порядок проверок: курс в каталоге, пререквизиты среди завершённых,
// курс ещё не активен и не завершён, допустимая нагрузка. Любой отказ - сообщение без
// изменения записи. Для самого первого курса возвращается FollowUp
// на выдачу урока.
func (r *Registrar) RequestCourse(rec *student.Record, name string) Result {
	r.deps.Tracker.Begin(agent.Registrar, agent.Processing)
	defer r.deps.Tracker.ResetAfter(agent.Registrar, r.deps.Delays.Registration)

	log := r.deps.log(agent.Registrar).With(logger.Course(name))

	course, ok := r.deps.Catalog.Course(name)
	if !ok {
		r.deps.say(agent.Registrar, rec, fmt.Sprintf("Course \"%s\" not found in our catalog.", name))
		return Result{Outcome: shared.ErrCourseNotFound}
	}

	if missing := rec.MissingPrerequisites(course.Prerequisites); len(missing) > 0 {
		r.deps.say(agent.Registrar, rec, fmt.Sprintf("Cannot register for %s. Missing prerequisites: %s.",
			name, strings.Join(missing, ", ")))
		return Result{Outcome: shared.ErrMissingPrerequisites}
	}

	if rec.IsActive(name) {
		r.deps.say(agent.Registrar, rec, fmt.Sprintf("You are already registered for %s.", name))
		return Result{Outcome: shared.ErrAlreadyRegistered}
	}

	if rec.IsCompleted(name) {
		r.deps.say(agent.Registrar, rec, fmt.Sprintf("You have already completed %s.", name))
		return Result{Outcome: shared.ErrAlreadyRegistered}
	}

	decision := r.counselor.CheckWorkload(rec, course.Credits)
	if !decision.Allowed {
		r.deps.say(agent.Registrar, rec, fmt.Sprintf("Registration denied for %s. %s", name, decision.Reason))
		log.Info("registration denied", logger.String("reason", decision.Reason), logger.Int("credits", decision.TotalCredits))
		return Result{Outcome: shared.ErrWorkloadDenied}
	}

	firstEver := len(rec.ActiveCourses) == 0 && len(rec.CompletedCourses) == 0
	if err := rec.Enroll(name); err != nil {
		return Result{Outcome: err}
	}

	r.deps.say(agent.Registrar, rec, fmt.Sprintf("Successfully registered for %s!", name))
	r.deps.update(rec, notification.FieldCourses, snapshot(rec.ActiveCourses))
	log.Info("course registered", logger.Int("credits", decision.TotalCredits))

	if firstEver {
		return Result{FollowUps: []FollowUp{{Kind: FollowDeliverLesson, Topic: name}}}
	}
	return Result{}
}

// CompleteCourse переносит активный курс в завершённые и снижает стресс
// пропорционально кредитам курса.
func (r *Registrar) CompleteCourse(rec *student.Record, name string) Result {
	r.deps.Tracker.Begin(agent.Registrar, agent.Processing)
	defer r.deps.Tracker.ResetAfter(agent.Registrar, r.deps.Delays.Registration)

	if err := rec.Complete(name); err != nil {
		r.deps.say(agent.Registrar, rec, fmt.Sprintf("You are not currently registered for %s.", name))
		return Result{Outcome: err}
	}

	r.deps.say(agent.Registrar, rec, fmt.Sprintf("Congratulations! You've completed %s.", name))
	r.deps.update(rec, notification.FieldCourses, snapshot(rec.ActiveCourses))
	r.deps.update(rec, notification.FieldCompletedCourses, snapshot(rec.CompletedCourses))

	credits := 0
	if course, ok := r.deps.Catalog.Course(name); ok {
		credits = course.Credits
	}
	stress := workload.ApplyDelta(rec, -credits)
	r.deps.update(rec, notification.FieldStressLevel, stress)

	r.deps.log(agent.Registrar).Info("course completed", logger.Course(name), logger.Stress(stress))

	if workload.NeedsWellnessAdvice(stress) {
		return Result{FollowUps: []FollowUp{{Kind: FollowWellnessAdvice}}}
	}
	return Result{}
}
