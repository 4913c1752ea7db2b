// Package command contains the write operations a student can send to the campus.
//
// Every inbound action arrives as a kind plus a raw JSON payload. Decode turns
// it into one of the typed commands below and validates it; the orchestrator
// only ever sees validated commands.
package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/campus-agents/campus-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTION KINDS
// ══════════════════════════════════════════════════════════════════════════════

// Kind identifies an inbound student action.
type Kind string

const (
	// KindRequestCourse - register for a course.
	KindRequestCourse Kind = "request-course"

	// KindAnswerQuiz - answer a quiz question.
	KindAnswerQuiz Kind = "answer-quiz"

	// KindRequestLesson - ask for a lesson on a topic.
	KindRequestLesson Kind = "request-lesson"

	// KindReportStress - self-report the current stress level.
	KindReportStress Kind = "report-stress"

	// KindRequestEvents - ask for event recommendations.
	KindRequestEvents Kind = "request-events"

	// KindCompleteCourse - mark an active course as completed.
	KindCompleteCourse Kind = "complete-course"
)

// AllKinds returns every routable action kind.
func AllKinds() []Kind {
	return []Kind{
		KindRequestCourse,
		KindAnswerQuiz,
		KindRequestLesson,
		KindReportStress,
		KindRequestEvents,
		KindCompleteCourse,
	}
}

// IsValid returns true if the kind is routable.
func (k Kind) IsValid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the wire form.
func (k Kind) String() string {
	return string(k)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMAND INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Command is a validated student action.
type Command interface {
	// Kind returns the action kind.
	Kind() Kind

	// Validate checks the payload.
	Validate() error
}

// Action is an undecoded inbound action.
type Action struct {
	Kind    Kind            `json:"action"`
	Payload json.RawMessage `json:"data"`
}

// Decode parses and validates an action payload.
// Errors wrap shared.ErrInvalidInput.
func Decode(kind Kind, payload json.RawMessage) (Command, error) {
	var cmd Command
	switch kind {
	case KindRequestCourse:
		cmd = &RequestCourseCommand{}
	case KindAnswerQuiz:
		cmd = &AnswerQuizCommand{}
	case KindRequestLesson:
		cmd = &RequestLessonCommand{}
	case KindReportStress:
		cmd = &ReportStressCommand{}
	case KindRequestEvents:
		cmd = &RequestEventsCommand{}
	case KindCompleteCourse:
		cmd = &CompleteCourseCommand{}
	default:
		return nil, shared.WrapError("dispatch", "Decode", shared.ErrInvalidInput,
			fmt.Sprintf("unknown action %q", kind), shared.ErrUnknownAction)
	}

	if len(bytes.TrimSpace(payload)) > 0 && !bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		if err := json.Unmarshal(payload, cmd); err != nil {
			return nil, shared.WrapError("dispatch", "Decode", shared.ErrInvalidInput,
				fmt.Sprintf("%s: malformed payload", kind), err)
		}
	}

	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("dispatch", "Decode", shared.ErrInvalidInput,
			fmt.Sprintf("%s: validation failed", kind), err)
	}
	return cmd, nil
}

// DecodeAction is Decode for an Action value.
func DecodeAction(a Action) (Command, error) {
	return Decode(a.Kind, a.Payload)
}

func required(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %s is required: %w", op, field, shared.ErrMalformedPayload)
	}
	return nil
}
