package specialist

import (
	"fmt"

	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/domain/shared"
	"github.com/campus-agents/campus-hub/internal/domain/student"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// Professor - специалист по обучению: уроки и проверка ответов.
type Professor struct {
	deps Deps
}

// NewProfessor создаёт специалиста по обучению.
func NewProfessor(deps Deps) *Professor {
	return &Professor{deps: deps}
}

// DeliverLesson отправляет урок по теме блок за блоком в порядке сценария.
// Вопросы теста уходят без правильного ответа.
func (p *Professor) DeliverLesson(rec *student.Record, topic string) Result {
	p.deps.Tracker.Begin(agent.Professor, agent.Teaching)
	defer p.deps.Tracker.ResetAfter(agent.Professor, p.deps.Delays.Lesson)

	lesson, ok := p.deps.Catalog.Lesson(topic)
	if !ok {
		p.deps.say(agent.Professor, rec, fmt.Sprintf("I don't have lessons on %s yet. Maybe try another topic?", topic))
		p.deps.log(agent.Professor).Debug("unknown topic", logger.Topic(topic))
		return Result{Outcome: shared.ErrTopicNotFound}
	}

	for _, item := range lesson.Items {
		if item.IsQuiz() {
			q := item.Quiz
			p.deps.Sink.Emit(notification.QuizQuestion{
				Agent:      agent.Professor.String(),
				Question:   q.Text,
				Options:    snapshot(q.Options),
				QuestionID: q.ID,
				StudentID:  rec.ID,
			})
			continue
		}
		p.deps.Sink.Emit(notification.LessonContent{
			Agent:     agent.Professor.String(),
			Text:      item.Text,
			StudentID: rec.ID,
		})
	}

	return Result{}
}

// RecordAnswer проверяет ответ, обновляет мастерство по теме вопроса и
// передаёт новую долю правильных ответов консультанту.
// Неизвестный вопрос отклоняется явно: мастерство не меняется, отзыва нет.
func (p *Professor) RecordAnswer(rec *student.Record, questionID, answer string) Result {
	p.deps.Tracker.Begin(agent.Professor, agent.Evaluating)
	defer p.deps.Tracker.ResetAfter(agent.Professor, p.deps.Delays.Answer)

	q, topic, ok := p.deps.Catalog.Question(questionID)
	if !ok {
		p.deps.say(agent.Professor, rec, fmt.Sprintf("Question %q is not part of any lesson, so I can't grade it.", questionID))
		return Result{Outcome: shared.ErrQuestionNotFound}
	}

	correct := q.IsCorrect(answer)
	m := rec.RecordAnswer(topic, correct)

	p.deps.Sink.Emit(notification.QuizFeedback{
		Agent:     agent.Professor.String(),
		Question:  q.Text,
		IsCorrect: correct,
		Score:     notification.Score{Correct: m.Correct, Total: m.Total},
		StudentID: rec.ID,
	})

	p.deps.log(agent.Professor).Debug("answer graded",
		logger.Topic(topic),
		logger.Bool("correct", correct),
		logger.Int("total", m.Total),
	)

	return Result{FollowUps: []FollowUp{{Kind: FollowNotifyProgress, Topic: topic, Fraction: m.Fraction()}}}
}
