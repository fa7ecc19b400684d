package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/repository"
)

// DeletedMessage is returned to clients after a successful delete.
const DeletedMessage = "删除成功"

// Default pagination values used by the HTTP layer.
const (
	DefaultSkip  = 0
	DefaultLimit = 10
)

// TodoCreate is the request body for both create and update. Update replaces
// the whole record with it, so an omitted description clears the stored one.
type TodoCreate struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted bool    `json:"is_completed"`
}

// TodoResponse is the JSON representation of a Todo.
type TodoResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted bool    `json:"is_completed"`
}

// DeleteTodoResponse acknowledges a delete.
type DeleteTodoResponse struct {
	Message   string `json:"message"`
	DeletedID int64  `json:"deleted_id"`
}

// TodoService defines the operations for managing todos.
// Lookups by ID return an error wrapping domain.ErrTodoNotFound when nothing matches.
type TodoService interface {
	// ListTodos returns at most limit todos after skipping skip, in creation order.
	// Negative arguments are treated as zero.
	ListTodos(ctx context.Context, skip, limit int) ([]TodoResponse, error)

	GetTodoByID(ctx context.Context, id int64) (*TodoResponse, error)

	CreateTodo(ctx context.Context, req TodoCreate) (*TodoResponse, error)

	UpdateTodo(ctx context.Context, id int64, req TodoCreate) (*TodoResponse, error)

	DeleteTodo(ctx context.Context, id int64) (*DeleteTodoResponse, error)
}

// todoService implements TodoService on top of a TodoRepository.
type todoService struct {
	repo   repository.TodoRepository
	logger *log.Logger
}

// NewTodoService creates a TodoService backed by repo.
func NewTodoService(repo repository.TodoRepository, logger *log.Logger) TodoService {
	return &todoService{
		repo:   repo,
		logger: logger.WithPrefix("todo"),
	}
}

// ListTodos clamps the pagination window and converts each todo to its
// response form. The result is never nil, so an empty page encodes as [].
func (s *todoService) ListTodos(ctx context.Context, skip, limit int) ([]TodoResponse, error) {
	skip = max(skip, 0)
	limit = max(limit, 0)

	todos, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		s.logger.Error("list todos", "skip", skip, "limit", limit, "err", err)
		return nil, fmt.Errorf("failed to retrieve todo items: %w", err)
	}

	responses := make([]TodoResponse, 0, len(todos))
	for _, todo := range todos {
		responses = append(responses, toResponse(todo))
	}
	return responses, nil
}

func (s *todoService) GetTodoByID(ctx context.Context, id int64) (*TodoResponse, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError("get", id, err)
	}
	resp := toResponse(*todo)
	return &resp, nil
}

// CreateTodo stores a new todo; the repository assigns its ID.
func (s *todoService) CreateTodo(ctx context.Context, req TodoCreate) (*TodoResponse, error) {
	todo := &domain.Todo{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		s.logger.Error("create todo", "err", err)
		return nil, fmt.Errorf("failed to create todo item: %w", err)
	}
	s.logger.Debug("created todo", "id", todo.ID)

	resp := toResponse(*todo)
	return &resp, nil
}

// UpdateTodo replaces every field of todo id with req. Fields left out of req
// take their zero value instead of keeping the stored one.
func (s *todoService) UpdateTodo(ctx context.Context, id int64, req TodoCreate) (*TodoResponse, error) {
	todo := &domain.Todo{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	}
	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, s.lookupError("update", id, err)
	}
	s.logger.Debug("updated todo", "id", id)

	resp := toResponse(*todo)
	return &resp, nil
}

// DeleteTodo removes todo id and acknowledges it with DeletedMessage.
func (s *todoService) DeleteTodo(ctx context.Context, id int64) (*DeleteTodoResponse, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, s.lookupError("delete", id, err)
	}
	s.logger.Debug("deleted todo", "id", id)

	return &DeleteTodoResponse{Message: DeletedMessage, DeletedID: id}, nil
}

// lookupError keeps domain.ErrTodoNotFound matchable and logs anything else.
func (s *todoService) lookupError(op string, id int64, err error) error {
	if errors.Is(err, domain.ErrTodoNotFound) {
		return fmt.Errorf("%s todo %d: %w", op, id, domain.ErrTodoNotFound)
	}
	s.logger.Error(op+" todo", "id", id, "err", err)
	return fmt.Errorf("failed to %s todo item %d: %w", op, id, err)
}

func toResponse(todo domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		IsCompleted: todo.IsCompleted,
	}
}
