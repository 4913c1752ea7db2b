// Package workload содержит модель нагрузки и стресса: чистые правила,
// которые ограничивают запись на курсы и пересчитывают стресс при
// изменении учебной нагрузки.
package workload

import (
	"github.com/campus-agents/campus-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MaxCredits - жёсткий лимит кредитов.
	MaxCredits = 12

	// StressedCreditLimit - лимит кредитов при высоком стрессе.
	StressedCreditLimit = 9

	// HighStress - порог высокого стресса (строго больше).
	HighStress = 70

	// IncreasePerCredit - прирост стресса за каждый добавленный кредит.
	IncreasePerCredit = 5

	// DecreasePerCredit - снижение стресса за каждый снятый кредит.
	DecreasePerCredit = 2
)

// Тексты решений.
const (
	ReasonLimitExceeded = "Maximum credit limit (12) exceeded."
	ReasonHighStress    = "High stress level detected. Consider a lighter workload."
	ReasonAcceptable    = "Workload acceptable."
)

// CreditSource возвращает суммарные кредиты курсов.
// Реализуется каталогом.
type CreditSource interface {
	Credits(courses []string) int
}

// Decision - результат проверки нагрузки.
type Decision struct {
	Allowed      bool
	Reason       string
	TotalCredits int
}

// ══════════════════════════════════════════════════════════════════════════════
// RULES
// ══════════════════════════════════════════════════════════════════════════════

// Evaluate проверяет, допустима ли нагрузка с учётом additionalCredits.
// Функция чистая: запись не изменяется.
func Evaluate(rec *student.Record, credits CreditSource, additionalCredits int) Decision {
	total := credits.Credits(rec.ActiveCourses) + additionalCredits

	switch {
	case total > MaxCredits:
		return Decision{Allowed: false, Reason: ReasonLimitExceeded, TotalCredits: total}
	case total > StressedCreditLimit && rec.Stress > HighStress:
		return Decision{Allowed: false, Reason: ReasonHighStress, TotalCredits: total}
	default:
		return Decision{Allowed: true, Reason: ReasonAcceptable, TotalCredits: total}
	}
}

// StressDelta возвращает изменение стресса для изменения нагрузки на creditDelta кредитов.
// Рост нагрузки штрафуется сильнее, чем снижение облегчает.
func StressDelta(creditDelta int) int {
	if creditDelta > 0 {
		return creditDelta * IncreasePerCredit
	}
	return creditDelta * DecreasePerCredit
}

// ApplyDelta изменяет стресс записи и возвращает новое значение.
// Вызывающий обязан отправить уведомление об изменении и, если
// NeedsWellnessAdvice(newStress), инициировать совет по благополучию.
func ApplyDelta(rec *student.Record, creditDelta int) int {
	return rec.SetStress(rec.Stress + StressDelta(creditDelta))
}

// NeedsWellnessAdvice возвращает true, если стресс выше порога.
func NeedsWellnessAdvice(stress int) bool {
	return stress > HighStress
}
