// Package repo persists users and todos. Every todo statement is scoped by user_id.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	dom "todoapp/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches, including rows owned by another user.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	GetByID(ctx context.Context, userID, id string) (dom.Todo, error)
	List(ctx context.Context, userID string, f dom.TodoFilter) ([]dom.Todo, error)
	Update(ctx context.Context, userID, id string, t dom.Todo) (dom.Todo, error)
	Toggle(ctx context.Context, userID, id string) (dom.Todo, error)
	Delete(ctx context.Context, userID, id string) error
	Search(ctx context.Context, userID, q string) ([]dom.Todo, error)
	Overdue(ctx context.Context, userID string, now time.Time) ([]dom.Todo, error)
}

// UserRepo provides user persistence.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (dom.User, error)
	GetByID(ctx context.Context, id string) (dom.User, error)
	Create(ctx context.Context, u dom.User) (dom.User, error)
}

const todoColumns = `id, user_id, title, description, completed, priority, due_date, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern matches q literally anywhere in a LIKE ... ESCAPE '\' operand.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
