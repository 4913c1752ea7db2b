package student

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campus-agents/campus-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Границы шкалы стресса.
const (
	MinStress = 0
	MaxStress = 100
)

// ClampStress приводит значение к диапазону [MinStress, MaxStress].
func ClampStress(level int) int {
	if level < MinStress {
		return MinStress
	}
	if level > MaxStress {
		return MaxStress
	}
	return level
}

// Mastery - счётчики ответов по одной теме.
type Mastery struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Fraction возвращает долю правильных ответов (0, если попыток не было).
func (m Mastery) Fraction() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Total)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record - состояние одного студента, единственный источник истины
// для записи на курсы, стресса и мастерства.
type Record struct {
	// ID - уникальный идентификатор (UUID).
	ID string `json:"id"`

	// Name - отображаемое имя.
	Name string `json:"name"`

	// ActiveCourses - активные курсы в порядке записи.
	ActiveCourses []string `json:"courses"`

	// CompletedCourses - завершённые курсы в порядке завершения.
	CompletedCourses []string `json:"completedCourses"`

	// Interests - теги интересов.
	Interests []string `json:"interests"`

	// Stress - уровень стресса, 0-100.
	Stress int `json:"stressLevel"`

	// Mastery - мастерство по темам.
	Mastery map[string]Mastery `json:"learningScores"`

	// LastActivity - время последнего действия студента.
	LastActivity time.Time `json:"lastActivity"`

	// LastGoalDate - календарный день (в часовом поясе кампуса), когда
	// последний раз формировались дневные цели. Пусто, если ещё не было.
	LastGoalDate string `json:"lastGoalDate,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewRecordParams содержит параметры для создания записи.
type NewRecordParams struct {
	ID        string
	Name      string
	Interests []string
	Now       time.Time
}

// NewRecord создаёт запись студента. Пустой ID заменяется новым UUID.
func NewRecord(params NewRecordParams) (*Record, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" || len(name) > 100 {
		return nil, shared.WrapError("student", "Create", shared.ErrInvalidInput,
			"display name must be 1-100 chars", shared.ErrInvalidStudent)
	}

	id := params.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, shared.WrapError("student", "Create", shared.ErrInvalidID, "student id must be a UUID", err)
	}

	interests := make([]string, 0, len(params.Interests))
	for _, tag := range params.Interests {
		if tag = strings.TrimSpace(tag); tag != "" {
			interests = append(interests, tag)
		}
	}

	return &Record{
		ID:               id,
		Name:             name,
		ActiveCourses:    []string{},
		CompletedCourses: []string{},
		Interests:        interests,
		Mastery:          make(map[string]Mastery),
		LastActivity:     params.Now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// IsActive возвращает true, если курс сейчас активен.
func (r *Record) IsActive(course string) bool {
	return indexOf(r.ActiveCourses, course) >= 0
}

// IsCompleted возвращает true, если курс завершён.
func (r *Record) IsCompleted(course string) bool {
	return indexOf(r.CompletedCourses, course) >= 0
}

// MissingPrerequisites возвращает пререквизиты, которых нет среди завершённых курсов.
func (r *Record) MissingPrerequisites(prereqs []string) []string {
	var missing []string
	for _, p := range prereqs {
		if !r.IsCompleted(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// FirstActive возвращает первый активный курс.
func (r *Record) FirstActive() (string, bool) {
	if len(r.ActiveCourses) == 0 {
		return "", false
	}
	return r.ActiveCourses[0], true
}

// MasteryFor возвращает мастерство по теме.
func (r *Record) MasteryFor(topic string) Mastery {
	return r.Mastery[topic]
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// ErrCourseCompleted - курс уже завершён и не может стать активным снова.
var ErrCourseCompleted = errors.New("course already completed")

// Enroll добавляет курс в конец списка активных.
func (r *Record) Enroll(course string) error {
	if r.IsActive(course) {
		return shared.ErrAlreadyRegistered
	}
	if r.IsCompleted(course) {
		return shared.WrapError("student", "Enroll", shared.ErrInvalidState, "course already completed", ErrCourseCompleted)
	}
	r.ActiveCourses = append(r.ActiveCourses, course)
	return nil
}

// Complete переносит курс из активных в завершённые.
func (r *Record) Complete(course string) error {
	i := indexOf(r.ActiveCourses, course)
	if i < 0 {
		return shared.ErrCourseNotActive
	}
	r.ActiveCourses = append(r.ActiveCourses[:i:i], r.ActiveCourses[i+1:]...)
	r.CompletedCourses = append(r.CompletedCourses, course)
	return nil
}

// SetStress перезаписывает стресс с ограничением диапазона и возвращает новое значение.
func (r *Record) SetStress(level int) int {
	r.Stress = ClampStress(level)
	return r.Stress
}

// RecordAnswer учитывает ответ по теме: total растёт всегда, correct - только при верном ответе.
func (r *Record) RecordAnswer(topic string, correct bool) Mastery {
	if r.Mastery == nil {
		r.Mastery = make(map[string]Mastery)
	}
	m := r.Mastery[topic]
	m.Total++
	if correct {
		m.Correct++
	}
	r.Mastery[topic] = m
	return m
}

// Touch обновляет время последней активности.
func (r *Record) Touch(now time.Time) {
	r.LastActivity = now
}

// Clone возвращает глубокую копию записи.
func (r *Record) Clone() *Record {
	c := *r
	c.ActiveCourses = append([]string{}, r.ActiveCourses...)
	c.CompletedCourses = append([]string{}, r.CompletedCourses...)
	c.Interests = append([]string{}, r.Interests...)
	c.Mastery = make(map[string]Mastery, len(r.Mastery))
	for k, v := range r.Mastery {
		c.Mastery[k] = v
	}
	return &c
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
