// Package orchestrator связывает специалистов, хранилище и трекер статусов.
//
// Coordinator - единственная точка входа ядра: Dispatch для действий
// студента, CheckActivity для планировщика, Statuses для наблюдателей.
// Все точки входа и отложенные сбросы статусов сериализуются одной
// блокировкой.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/campus-agents/campus-hub/internal/application/command"
	"github.com/campus-agents/campus-hub/internal/application/specialist"
	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/catalog"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/domain/shared"
	"github.com/campus-agents/campus-hub/internal/domain/student"
	"github.com/campus-agents/campus-hub/pkg/logger"
	"github.com/campus-agents/campus-hub/pkg/timeutil"
)

// maxFollowUps ограничивает цепочку межагентных вызовов одного Dispatch.
const maxFollowUps = 16

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Metrics принимает наблюдения ядра. Реализация - infrastructure/observability.
type Metrics interface {
	ObserveAction(kind, outcome string, latency time.Duration)
	SetStress(level int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAction(string, string, time.Duration) {}
func (nopMetrics) SetStress(int)                               {}

// Config содержит зависимости и настройки координатора.
type Config struct {
	Catalog  *catalog.Catalog
	Students student.Repository
	Sink     notification.Sink
	Clock    timeutil.Clock

	// Delays - окна "занят" специалистов.
	Delays specialist.Delays

	// Mentor - настройки мониторинга активности.
	Mentor specialist.MentorConfig

	// StudentName и Interests описывают демо-студента.
	StudentName string
	Interests   []string

	// Middlewares оборачивают обработку команд, первый - внешний.
	Middlewares []Middleware

	Logger  *logger.Logger
	Metrics Metrics
	Tracer  trace.Tracer
}

// DefaultConfig возвращает настройки демо-кампуса.
func DefaultConfig() Config {
	return Config{
		Catalog:     catalog.MustDefault(),
		Clock:       timeutil.NewRealClock(),
		Delays:      specialist.DefaultDelays(time.Second),
		Mentor:      specialist.DefaultMentorConfig(),
		StudentName: "Demo Student",
		Interests:   []string{"ai", "robotics"},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COORDINATOR
// ══════════════════════════════════════════════════════════════════════════════

// Coordinator - явный контекст оркестрации.
type Coordinator struct {
	mu     sync.Mutex
	closed bool

	students  student.Repository
	studentID string
	clock     timeutil.Clock
	tracker   *agent.Tracker

	professor *specialist.Professor
	registrar *specialist.Registrar
	counselor *specialist.Counselor
	events    *specialist.EventMatcher
	mentor    *specialist.Mentor

	handler Handler
	logger  *logger.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// New создаёт координатора и регистрирует демо-студента.
func New(ctx context.Context, cfg Config) (*Coordinator, error) {
	if cfg.Catalog == nil || cfg.Students == nil || cfg.Sink == nil || cfg.Clock == nil {
		return nil, shared.NewDomainError("orchestrator", "New", shared.ErrValidation,
			"catalog, students, sink and clock are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("campus-hub/orchestrator")
	}
	if cfg.StudentName == "" {
		cfg.StudentName = "Demo Student"
	}

	rec, err := student.NewRecord(student.NewRecordParams{
		Name:      cfg.StudentName,
		Interests: cfg.Interests,
		Now:       cfg.Clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: create student: %w", err)
	}
	if err := cfg.Students.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("orchestrator: store student: %w", err)
	}

	c := &Coordinator{
		students:  cfg.Students,
		studentID: rec.ID,
		clock:     cfg.Clock,
		logger:    cfg.Logger.With(logger.Component("orchestrator")),
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
	}
	c.tracker = agent.NewTracker(cfg.Clock, cfg.Sink, &c.mu)

	deps := specialist.Deps{
		Catalog: cfg.Catalog,
		Tracker: c.tracker,
		Sink:    cfg.Sink,
		Delays:  cfg.Delays,
		Logger:  cfg.Logger,
	}
	c.counselor = specialist.NewCounselor(deps)
	c.professor = specialist.NewProfessor(deps)
	c.registrar = specialist.NewRegistrar(deps, c.counselor)
	c.events = specialist.NewEventMatcher(deps)
	c.mentor = specialist.NewMentor(deps, cfg.Mentor)

	c.handler = c.handle
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		c.handler = cfg.Middlewares[i](c.handler)
	}

	c.metrics.SetStress(rec.Stress)
	c.logger.Info("campus ready",
		logger.StudentID(rec.ID),
		logger.String("student", rec.Name),
		logger.Int("courses", len(cfg.Catalog.Courses())),
	)
	return c, nil
}

// StudentID возвращает ID демо-студента.
func (c *Coordinator) StudentID() string {
	return c.studentID
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY POINTS
// ══════════════════════════════════════════════════════════════════════════════

// Dispatch декодирует действие и передаёт его ровно одному специалисту.
//
// Ошибка возвращается только для некорректного действия (ErrInvalidInput,
// ничего не отправлено) или сбоя хранилища. Доменные исходы (курс не найден,
// отказ в регистрации) студент получает сообщением, а Dispatch возвращает nil.
func (c *Coordinator) Dispatch(ctx context.Context, action command.Action) error {
	cmd, err := command.DecodeAction(action)
	if err != nil {
		c.metrics.ObserveAction(string(action.Kind), "invalid", 0)
		return err
	}
	return c.Execute(ctx, cmd)
}

// Execute выполняет уже проверенную команду.
func (c *Coordinator) Execute(ctx context.Context, cmd command.Command) error {
	return c.handler(ctx, cmd)
}

// CheckActivity запускает проверку активности наставника.
func (c *Coordinator) CheckActivity(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "campus.check_activity")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed("CheckActivity")
	}

	rec, err := c.students.GetByID(ctx, c.studentID)
	if err != nil {
		return fmt.Errorf("orchestrator: load student: %w", err)
	}

	c.mentor.CheckActivity(rec, c.clock.Now())

	if err := c.students.Update(ctx, rec); err != nil {
		return fmt.Errorf("orchestrator: save student: %w", err)
	}
	return nil
}

// Statuses возвращает снимок статусов специалистов.
func (c *Coordinator) Statuses() agent.StatusMap {
	return c.tracker.Snapshot()
}

// Student возвращает копию записи демо-студента.
func (c *Coordinator) Student(ctx context.Context) (*student.Record, error) {
	return c.students.GetByID(ctx, c.studentID)
}

// Close отменяет отложенные сбросы. После Close точки входа возвращают ошибку.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.tracker.Stop()
	c.logger.Info("campus stopped")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (c *Coordinator) handle(ctx context.Context, cmd command.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed("Dispatch")
	}

	start := time.Now()
	rec, err := c.students.GetByID(ctx, c.studentID)
	if err != nil {
		return fmt.Errorf("orchestrator: load student: %w", err)
	}
	rec.Touch(c.clock.Now())

	res := c.route(rec, cmd)
	followed := c.replay(ctx, rec, res.FollowUps)

	if err := c.students.Update(ctx, rec); err != nil {
		return fmt.Errorf("orchestrator: save student: %w", err)
	}

	outcome := OutcomeLabel(res.Outcome)
	c.metrics.ObserveAction(cmd.Kind().String(), outcome, time.Since(start))
	c.metrics.SetStress(rec.Stress)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("campus.outcome", outcome),
		attribute.Int("campus.follow_ups", followed),
		attribute.Int("campus.stress", rec.Stress),
	)
	c.logger.Debug("action handled",
		logger.Action(cmd.Kind().String()),
		logger.String("outcome", outcome),
		logger.Int("follow_ups", followed),
		logger.Stress(rec.Stress),
	)
	return nil
}

func (c *Coordinator) route(rec *student.Record, cmd command.Command) specialist.Result {
	switch cmd := cmd.(type) {
	case *command.RequestCourseCommand:
		return c.registrar.RequestCourse(rec, cmd.Course)
	case *command.CompleteCourseCommand:
		return c.registrar.CompleteCourse(rec, cmd.Course)
	case *command.RequestLessonCommand:
		return c.professor.DeliverLesson(rec, cmd.Topic)
	case *command.AnswerQuizCommand:
		return c.professor.RecordAnswer(rec, cmd.QuestionID, cmd.Answer)
	case *command.ReportStressCommand:
		return c.counselor.ReportStress(rec, cmd.StressLevel(), cmd.Message)
	case *command.RequestEventsCommand:
		return c.events.Recommend(rec)
	default:
		return specialist.Result{Outcome: shared.ErrUnknownAction}
	}
}

// replay выполняет межагентные вызовы по порядку. Вызовы, порождённые
// вызовом, выполняются после уже запланированных.
func (c *Coordinator) replay(ctx context.Context, rec *student.Record, queue []specialist.FollowUp) int {
	span := trace.SpanFromContext(ctx)
	done := 0
	for len(queue) > 0 && done < maxFollowUps {
		f := queue[0]
		queue = queue[1:]
		done++

		span.AddEvent("follow-up", trace.WithAttributes(
			attribute.String("campus.follow_up", string(f.Kind)),
			attribute.String("campus.topic", f.Topic),
		))

		var res specialist.Result
		switch f.Kind {
		case specialist.FollowDeliverLesson:
			res = c.professor.DeliverLesson(rec, f.Topic)
		case specialist.FollowNotifyProgress:
			res = c.counselor.NotifyProgress(rec, f.Topic, f.Fraction)
		case specialist.FollowWellnessAdvice:
			c.counselor.WellnessAdvice(rec, "")
		default:
			c.logger.Warn("unknown follow-up dropped", logger.String("kind", string(f.Kind)))
			continue
		}
		queue = append(queue, res.FollowUps...)
	}
	if len(queue) > 0 {
		c.logger.Warn("follow-up chain truncated", logger.Int("dropped", len(queue)))
	}
	return done
}

// OutcomeLabel сворачивает доменный исход в метку для метрик и логов.
func OutcomeLabel(outcome error) string {
	switch {
	case outcome == nil:
		return "ok"
	case errors.Is(outcome, shared.ErrNotFound):
		return "not_found"
	case errors.Is(outcome, shared.ErrPolicyDenied):
		return "denied"
	case errors.Is(outcome, shared.ErrNoOp):
		return "noop"
	default:
		return "rejected"
	}
}

func errClosed(op string) error {
	return shared.NewDomainError("orchestrator", op, shared.ErrServiceUnavailable, "coordinator is closed")
}
