// Package student содержит доменную модель студента кампуса.
//
// Пакет определяет:
//
//   - Сущность Record: активные и завершённые курсы, интересы, уровень стресса,
//     мастерство по темам, время последней активности
//   - Value Object Mastery: счётчики правильных ответов и попыток
//   - Интерфейс Repository, реализация которого находится в infrastructure/persistence
//
// # Инварианты
//
// Курс находится не более чем в одном из списков {active, completed}.
// Активные курсы хранятся в порядке записи без дубликатов.
// Стресс всегда ограничен диапазоном [0, 100].
//
// Запись создаётся один раз при старте процесса и изменяется только
// специалистами через оркестратор:
//
//	rec, err := student.NewRecord(student.NewRecordParams{
//	    Name:      "Demo Student",
//	    Interests: []string{"ai", "robotics"},
//	    Now:       clock.Now(),
//	})
package student
