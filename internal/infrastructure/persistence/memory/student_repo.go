// Package memory implements the process-local persistence layer for Campus Hub.
//
// Student state lives only for the lifetime of the process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/campus-agents/campus-hub/internal/domain/shared"
	"github.com/campus-agents/campus-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository in memory.
// Records are cloned on the way in and out so callers never share state.
type StudentRepository struct {
	mu      sync.RWMutex
	records map[string]*student.Record
	order   []string
}

// NewStudentRepository creates an empty StudentRepository.
func NewStudentRepository() *StudentRepository {
	return &StudentRepository{records: make(map[string]*student.Record)}
}

// Compile-time check.
var _ student.Repository = (*StudentRepository)(nil)

// Create stores a new record.
func (r *StudentRepository) Create(ctx context.Context, rec *student.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil || rec.ID == "" {
		return shared.NewDomainError("student", "Create", shared.ErrInvalidEntity, "record without id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return shared.NewDomainError("student", "Create", shared.ErrAlreadyExists,
			fmt.Sprintf("student %s already exists", rec.ID))
	}
	r.records[rec.ID] = rec.Clone()
	r.order = append(r.order, rec.ID)
	return nil
}

// GetByID returns a copy of the record.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return rec.Clone(), nil
}

// Update replaces the stored record.
func (r *StudentRepository) Update(ctx context.Context, rec *student.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil {
		return shared.NewDomainError("student", "Update", shared.ErrInvalidEntity, "nil record")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; !ok {
		return shared.ErrStudentNotFound
	}
	r.records[rec.ID] = rec.Clone()
	return nil
}

// List returns all records in creation order.
func (r *StudentRepository) List(ctx context.Context) ([]*student.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*student.Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id].Clone())
	}
	return out, nil
}
