package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// TodoRepository defines the interface for todo data operations.
// Implementations return domain.ErrTodoNotFound when an ID does not match.
type TodoRepository interface {
	// List returns at most limit todos starting at offset skip, in store order.
	List(ctx context.Context, skip, limit int) ([]domain.Todo, error)
	FindByID(ctx context.Context, id int64) (*domain.Todo, error)
	// Create assigns the next ID to todo and stores it.
	Create(ctx context.Context, todo *domain.Todo) error
	// Update replaces every field of the todo identified by todo.ID.
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

// List pages through the todos table ordered by ID, which matches insertion
// order because IDs come from an identity sequence.
func (r *gormTodoRepository) List(ctx context.Context, skip, limit int) ([]domain.Todo, error) {
	todos := []domain.Todo{}
	if limit <= 0 {
		return todos, nil
	}
	if skip < 0 {
		skip = 0
	}
	result := r.db.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&todos)
	if result.Error != nil {
		return nil, fmt.Errorf("list todos: %w", result.Error)
	}
	return todos, nil
}

// FindByID loads a todo by primary key, translating gorm.ErrRecordNotFound.
func (r *gormTodoRepository) FindByID(ctx context.Context, id int64) (*domain.Todo, error) {
	var todo domain.Todo
	result := r.db.WithContext(ctx).First(&todo, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo %d: %w", id, result.Error)
	}
	return &todo, nil
}

// Create leaves ID assignment to the table's identity sequence, which never
// hands out a value twice.
func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	todo.ID = 0
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE before saving so a
// concurrent delete cannot turn the save into an insert.
func (r *gormTodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Todo
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&existing, todo.ID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTodoNotFound
			}
			return fmt.Errorf("lock todo %d: %w", todo.ID, err)
		}
		// Save writes every column, so a nil description clears the stored one.
		if err := tx.Save(todo).Error; err != nil {
			return fmt.Errorf("update todo %d: %w", todo.ID, err)
		}
		return nil
	})
}

// Delete removes the row permanently; domain.Todo has no DeletedAt column.
func (r *gormTodoRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&domain.Todo{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete todo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

// Count returns the number of rows in the todos table.
func (r *gormTodoRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Todo{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return n, nil
}
