package domain

import "errors"

// ErrTodoNotFound is returned by every layer when no todo matches a requested ID.
var ErrTodoNotFound = errors.New("todo not found")

// Todo is the only entity of the service. IDs are assigned by the store and
// never reused.
type Todo struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	Title       string  `gorm:"not null"`
	Description *string // nil means no description
	IsCompleted bool    `gorm:"not null;default:false"`
}

// Clone returns a deep copy so callers never share the description pointer
// with the store.
func (t Todo) Clone() Todo {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	return t
}
