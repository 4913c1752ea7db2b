package command

import (
	"fmt"
	"strings"

	"github.com/campus-agents/campus-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// RequestCourseCommand asks the registrar to enroll the student.
type RequestCourseCommand struct {
	// Course is the catalog course name.
	Course string `json:"course"`
}

// Kind implements Command.
func (c *RequestCourseCommand) Kind() Kind { return KindRequestCourse }

// Validate validates the command.
func (c *RequestCourseCommand) Validate() error {
	c.Course = strings.TrimSpace(c.Course)
	return required("request_course", "course", c.Course)
}

// CompleteCourseCommand moves an active course to completed.
type CompleteCourseCommand struct {
	Course string `json:"course"`
}

// Kind implements Command.
func (c *CompleteCourseCommand) Kind() Kind { return KindCompleteCourse }

// Validate validates the command.
func (c *CompleteCourseCommand) Validate() error {
	c.Course = strings.TrimSpace(c.Course)
	return required("complete_course", "course", c.Course)
}

// ══════════════════════════════════════════════════════════════════════════════
// INSTRUCTION
// ══════════════════════════════════════════════════════════════════════════════

// RequestLessonCommand asks the professor for a lesson.
type RequestLessonCommand struct {
	Topic string `json:"topic"`
}

// Kind implements Command.
func (c *RequestLessonCommand) Kind() Kind { return KindRequestLesson }

// Validate validates the command.
func (c *RequestLessonCommand) Validate() error {
	c.Topic = strings.TrimSpace(c.Topic)
	return required("request_lesson", "topic", c.Topic)
}

// AnswerQuizCommand submits an answer to a quiz question.
type AnswerQuizCommand struct {
	// QuestionID is the globally unique quiz id.
	QuestionID string `json:"questionId"`

	// Answer is compared to the correct option exactly.
	Answer string `json:"answer"`
}

// Kind implements Command.
func (c *AnswerQuizCommand) Kind() Kind { return KindAnswerQuiz }

// Validate validates the command.
// The answer is not trimmed: correctness is an exact match.
func (c *AnswerQuizCommand) Validate() error {
	if err := required("answer_quiz", "questionId", c.QuestionID); err != nil {
		return err
	}
	return required("answer_quiz", "answer", c.Answer)
}

// ══════════════════════════════════════════════════════════════════════════════
// COUNSELING & EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// ReportStressCommand is a stress self-report.
type ReportStressCommand struct {
	// Level is required. Out-of-range values are clamped later, not rejected.
	Level *int `json:"level"`

	// Message is an optional free-text note, quoted back verbatim.
	Message string `json:"message"`
}

// Kind implements Command.
func (c *ReportStressCommand) Kind() Kind { return KindReportStress }

// Validate validates the command.
func (c *ReportStressCommand) Validate() error {
	if c.Level == nil {
		return fmt.Errorf("report_stress: level is required: %w", shared.ErrMalformedPayload)
	}
	return nil
}

// StressLevel returns the reported level.
func (c *ReportStressCommand) StressLevel() int {
	if c.Level == nil {
		return 0
	}
	return *c.Level
}

// RequestEventsCommand asks for event recommendations. It has no payload.
type RequestEventsCommand struct{}

// Kind implements Command.
func (c *RequestEventsCommand) Kind() Kind { return KindRequestEvents }

// Validate validates the command.
func (c *RequestEventsCommand) Validate() error { return nil }
