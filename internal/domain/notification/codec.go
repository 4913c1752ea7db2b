package notification

import (
	"encoding/json"
	"fmt"

	"github.com/campus-agents/campus-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// Каждый тип сериализуется плоским JSON-объектом с дискриминатором "type",
// как его ожидает дашборд.
// ══════════════════════════════════════════════════════════════════════════════

func (n AgentStatus) MarshalJSON() ([]byte, error) {
	type plain AgentStatus
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{n.Kind(), plain(n)})
}

func (n AgentMessage) MarshalJSON() ([]byte, error) {
	type plain AgentMessage
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{n.Kind(), plain(n)})
}

func (n StudentUpdate) MarshalJSON() ([]byte, error) {
	type plain StudentUpdate
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{n.Kind(), plain(n)})
}

func (n LessonContent) MarshalJSON() ([]byte, error) {
	type plain LessonContent
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{n.Kind(), plain(n)})
}

func (n QuizQuestion) MarshalJSON() ([]byte, error) {
	type plain QuizQuestion
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{n.Kind(), plain(n)})
}

func (n QuizFeedback) MarshalJSON() ([]byte, error) {
	type plain QuizFeedback
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{n.Kind(), plain(n)})
}

func (n EventRecommendations) MarshalJSON() ([]byte, error) {
	type plain EventRecommendations
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{n.Kind(), plain(n)})
}

// Marshal сериализует уведомление в формат дашборда.
func Marshal(n Notification) ([]byte, error) {
	if n == nil {
		return nil, shared.NewDomainError("notification", "Marshal", shared.ErrInvalidInput, "nil notification")
	}
	return json.Marshal(n)
}

// Unmarshal восстанавливает уведомление по полю "type".
func Unmarshal(data []byte) (Notification, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, shared.WrapError("notification", "Decode", shared.ErrInvalidFormat, "read type", err)
	}

	switch head.Type {
	case KindAgentStatus:
		return decode[AgentStatus](data)
	case KindAgentMessage:
		return decode[AgentMessage](data)
	case KindStudentUpdate:
		return decode[StudentUpdate](data)
	case KindLessonContent:
		return decode[LessonContent](data)
	case KindQuizQuestion:
		return decode[QuizQuestion](data)
	case KindQuizFeedback:
		return decode[QuizFeedback](data)
	case KindEventRecommendations:
		return decode[EventRecommendations](data)
	default:
		return nil, fmt.Errorf("%q: %w", head.Type, shared.ErrUnknownKind)
	}
}

func decode[T Notification](data []byte) (Notification, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, shared.WrapError("notification", "Decode", shared.ErrInvalidFormat, "decode body", err)
	}
	return v, nil
}
