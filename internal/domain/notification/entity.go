// Package notification содержит типизированные уведомления, которые ядро
// отправляет наблюдателям (дашборд, брокер, журнал).
//
// Набор типов закрыт: Notification реализуют только типы этого пакета,
// поэтому получатель может перебрать все варианты в type switch.
package notification

import (
	"github.com/campus-agents/campus-hub/internal/domain/catalog"
)

// ══════════════════════════════════════════════════════════════════════════════
// KIND
// ══════════════════════════════════════════════════════════════════════════════

// Kind - дискриминатор уведомления, совпадает с полем "type" в JSON.
type Kind string

const (
	KindAgentStatus          Kind = "agent-status"
	KindAgentMessage         Kind = "agent-message"
	KindStudentUpdate        Kind = "student-update"
	KindLessonContent        Kind = "lesson-content"
	KindQuizQuestion         Kind = "quiz-question"
	KindQuizFeedback         Kind = "quiz-feedback"
	KindEventRecommendations Kind = "event-recommendations"
)

// AllKinds возвращает все виды уведомлений.
func AllKinds() []Kind {
	return []Kind{
		KindAgentStatus,
		KindAgentMessage,
		KindStudentUpdate,
		KindLessonContent,
		KindQuizQuestion,
		KindQuizFeedback,
		KindEventRecommendations,
	}
}

// IsValid проверяет, что вид известен.
func (k Kind) IsValid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// String возвращает строковое представление.
func (k Kind) String() string {
	return string(k)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// Notification - одно событие для наблюдателей.
type Notification interface {
	// Kind возвращает дискриминатор.
	Kind() Kind

	sealed()
}

// Поля student-update.
const (
	FieldCourses          = "courses"
	FieldCompletedCourses = "completedCourses"
	FieldStressLevel      = "stressLevel"
)

// AgentStatus - полный снимок статусов всех агентов.
type AgentStatus struct {
	Statuses map[string]string `json:"data"`
}

// AgentMessage - текстовое сообщение агента студенту.
type AgentMessage struct {
	Agent     string `json:"agent"`
	Text      string `json:"message"`
	StudentID string `json:"studentId,omitempty"`
}

// StudentUpdate - новое значение одного поля записи студента.
type StudentUpdate struct {
	Field     string `json:"field"`
	Value     any    `json:"value"`
	StudentID string `json:"studentId,omitempty"`
}

// LessonContent - текстовый блок урока.
type LessonContent struct {
	Agent     string `json:"agent"`
	Text      string `json:"content"`
	StudentID string `json:"studentId,omitempty"`
}

// QuizQuestion - вопрос теста. Правильный ответ сюда не попадает.
type QuizQuestion struct {
	Agent      string   `json:"agent"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	QuestionID string   `json:"questionId"`
	StudentID  string   `json:"studentId,omitempty"`
}

// Score - мастерство по теме после ответа.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// QuizFeedback - результат проверки ответа.
type QuizFeedback struct {
	Agent     string `json:"agent"`
	Question  string `json:"question"`
	IsCorrect bool   `json:"isCorrect"`
	Score     Score  `json:"score"`
	StudentID string `json:"studentId,omitempty"`
}

// EventRecommendations - подобранные мероприятия.
type EventRecommendations struct {
	Agent     string          `json:"agent"`
	Events    []catalog.Event `json:"events"`
	StudentID string          `json:"studentId,omitempty"`
}

func (AgentStatus) Kind() Kind          { return KindAgentStatus }
func (AgentMessage) Kind() Kind         { return KindAgentMessage }
func (StudentUpdate) Kind() Kind        { return KindStudentUpdate }
func (LessonContent) Kind() Kind        { return KindLessonContent }
func (QuizQuestion) Kind() Kind         { return KindQuizQuestion }
func (QuizFeedback) Kind() Kind         { return KindQuizFeedback }
func (EventRecommendations) Kind() Kind { return KindEventRecommendations }

func (AgentStatus) sealed()          {}
func (AgentMessage) sealed()         {}
func (StudentUpdate) sealed()        {}
func (LessonContent) sealed()        {}
func (QuizQuestion) sealed()         {}
func (QuizFeedback) sealed()         {}
func (EventRecommendations) sealed() {}

// StudentOf возвращает ID студента, к которому относится уведомление.
// Для статусов агентов возвращается пустая строка.
func StudentOf(n Notification) string {
	switch v := n.(type) {
	case AgentMessage:
		return v.StudentID
	case StudentUpdate:
		return v.StudentID
	case LessonContent:
		return v.StudentID
	case QuizQuestion:
		return v.StudentID
	case QuizFeedback:
		return v.StudentID
	case EventRecommendations:
		return v.StudentID
	default:
		return ""
	}
}
