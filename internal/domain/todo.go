package domain

import "time"

// Priority of a todo. Stored and transmitted as its upper-case name.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Domain entity: business object, owned by exactly one user.
// Does not depend on Gin, Postgres or Redis.
type Todo struct {
	ID          string
	UserID      string
	Title       string
	Description *string
	Completed   bool
	Priority    Priority
	DueDate     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTodo is the input for creating a todo. The owner is supplied separately.
type NewTodo struct {
	Title       string
	Description *string
	Priority    Priority
	DueDate     *time.Time
}

// Field is a tri-state patch value: not Set leaves the stored value alone,
// Set with a nil Value clears it.
type Field[T any] struct {
	Set   bool
	Value *T
}

// TodoPatch is a partial update. Title, Completed and Priority cannot be cleared.
type TodoPatch struct {
	Title       *string
	Description Field[string]
	Completed   *bool
	Priority    *Priority
	DueDate     Field[time.Time]
}

// Apply returns t with the patch applied.
func (p TodoPatch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Value
	}
	return t
}

// TodoFilter narrows a list. Nil fields do not filter.
type TodoFilter struct {
	Completed *bool
	Priority  *Priority
}
