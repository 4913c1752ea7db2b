package student

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища записей студентов.
// Записи никогда не удаляются в течение жизни процесса.
type Repository interface {
	// Create сохраняет новую запись.
	// Возвращает ошибку с kind ErrAlreadyExists, если ID занят.
	Create(ctx context.Context, rec *Record) error

	// GetByID возвращает копию записи.
	// Возвращает ErrStudentNotFound, если записи нет.
	GetByID(ctx context.Context, id string) (*Record, error)

	// Update заменяет сохранённую запись.
	// Возвращает ErrStudentNotFound, если записи нет.
	Update(ctx context.Context, rec *Record) error

	// List возвращает все записи в порядке создания.
	List(ctx context.Context) ([]*Record, error)
}
