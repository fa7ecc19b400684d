package repository

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// MemoryTodoRepository keeps todos in insertion order for the lifetime of the
// process. A single RWMutex guards the slice so a scan and the mutation that
// follows it are one atomic step.
type MemoryTodoRepository struct {
	mu     sync.RWMutex
	todos  []domain.Todo
	lastID int64 // highest ID ever issued
}

// NewMemoryTodoRepository creates an empty in-memory store.
func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{}
}

// List copies out the window [skip, skip+limit) of the store, clamped to its
// bounds. Negative arguments are treated as zero.
func (r *MemoryTodoRepository) List(_ context.Context, skip, limit int) ([]domain.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	if skip > len(r.todos) {
		skip = len(r.todos)
	}
	end := len(r.todos)
	if limit < end-skip {
		end = skip + limit
	}

	out := make([]domain.Todo, 0, end-skip)
	for _, t := range r.todos[skip:end] {
		out = append(out, t.Clone())
	}
	return out, nil
}

// FindByID scans for the record with the given ID and returns a copy of it.
func (r *MemoryTodoRepository) FindByID(_ context.Context, id int64) (*domain.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrTodoNotFound
	}
	t := r.todos[i].Clone()
	return &t, nil
}

// Create gives todo the ID following the last one issued. This equals the ID of
// the last record plus one unless the tail was deleted, in which case the
// retired ID is skipped.
func (r *MemoryTodoRepository) Create(_ context.Context, todo *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	todo.ID = r.lastID
	r.todos = append(r.todos, todo.Clone())
	return nil
}

// Update overwrites the record with todo.ID in place, keeping its position.
func (r *MemoryTodoRepository) Update(_ context.Context, todo *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(todo.ID)
	if i < 0 {
		return domain.ErrTodoNotFound
	}
	r.todos[i] = todo.Clone()
	return nil
}

// Delete removes the record with the given ID. Later records move up one
// position but keep their IDs, and the vacated tail slot is zeroed.
func (r *MemoryTodoRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ErrTodoNotFound
	}
	r.todos = slices.Delete(r.todos, i, i+1)
	return nil
}

// Count returns the number of records currently stored.
func (r *MemoryTodoRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.todos)), nil
}

// Health reports the store in the same shape as database.Service.Health.
func (r *MemoryTodoRepository) Health() map[string]string {
	n, _ := r.Count(context.Background())
	return map[string]string{
		"status":  "up",
		"message": "It's healthy",
		"backend": "memory",
		"todos":   strconv.FormatInt(n, 10),
	}
}

// indexOf must be called with mu held.
func (r *MemoryTodoRepository) indexOf(id int64) int {
	for i := range r.todos {
		if r.todos[i].ID == id {
			return i
		}
	}
	return -1
}
