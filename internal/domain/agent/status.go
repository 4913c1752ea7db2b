// Package agent содержит имена специалистов, метки активности и трекер
// статусов, который наблюдатели видят как карту "агент → метка".
package agent

// ══════════════════════════════════════════════════════════════════════════════
// NAMES
// ══════════════════════════════════════════════════════════════════════════════

// Name - имя специалиста в формате протокола.
type Name string

const (
	// Professor - обучение: уроки и проверка тестов.
	Professor Name = "ProfessorAgent"
	// Registrar - запись на курсы и их завершение.
	Registrar Name = "RegistrarAgent"
	// Counselor - нагрузка, стресс и советы по прогрессу.
	Counselor Name = "CounselorAgent"
	// Events - подбор мероприятий.
	Events Name = "EventAgent"
	// Mentor - мониторинг активности и дневные цели.
	Mentor Name = "MentorAgent"
)

// All возвращает всех специалистов в фиксированном порядке.
func All() []Name {
	return []Name{Professor, Registrar, Counselor, Events, Mentor}
}

// IsValid проверяет, что имя известно.
func (n Name) IsValid() bool {
	for _, known := range All() {
		if n == known {
			return true
		}
	}
	return false
}

// String возвращает строковое представление.
func (n Name) String() string {
	return string(n)
}

// ══════════════════════════════════════════════════════════════════════════════
// LABELS
// ══════════════════════════════════════════════════════════════════════════════

// Label - метка текущей активности специалиста.
type Label string

const (
	Idle       Label = "idle"
	Teaching   Label = "teaching"
	Evaluating Label = "evaluating"
	Processing Label = "processing"
	Counseling Label = "counseling"
	Searching  Label = "searching"
	Nudging    Label = "nudging"
)

// IsValid проверяет, что метка известна.
func (l Label) IsValid() bool {
	switch l {
	case Idle, Teaching, Evaluating, Processing, Counseling, Searching, Nudging:
		return true
	default:
		return false
	}
}

// IsBusy возвращает true для любой метки кроме Idle.
func (l Label) IsBusy() bool {
	return l != Idle
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS MAP
// ══════════════════════════════════════════════════════════════════════════════

// StatusMap - снимок статусов всех специалистов.
type StatusMap map[Name]Label

// NewStatusMap возвращает карту, где все специалисты в Idle.
func NewStatusMap() StatusMap {
	m := make(StatusMap, len(All()))
	for _, n := range All() {
		m[n] = Idle
	}
	return m
}

// Clone возвращает копию карты.
func (m StatusMap) Clone() StatusMap {
	c := make(StatusMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Wire возвращает карту в формате протокола.
func (m StatusMap) Wire() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[string(k)] = string(v)
	}
	return out
}
