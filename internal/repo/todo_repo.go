package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dom "todoapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (id, user_id, title, description, completed, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + todoColumns
	return pgScanTodo(r.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.Completed, string(t.Priority), t.DueDate,
	))
}

func (r *PGTodoRepo) GetByID(ctx context.Context, userID, id string) (dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	return pgScanTodo(r.db.QueryRow(ctx, query, id, userID))
}

func (r *PGTodoRepo) List(ctx context.Context, userID string, f dom.TodoFilter) ([]dom.Todo, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if f.Completed != nil {
		args = append(args, *f.Completed)
		where = append(where, fmt.Sprintf("completed = $%d", len(args)))
	}
	if f.Priority != nil {
		args = append(args, string(*f.Priority))
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	query := `SELECT ` + todoColumns + ` FROM todos WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY completed ASC, created_at DESC`
	return r.query(ctx, query, args...)
}

func (r *PGTodoRepo) Update(ctx context.Context, userID, id string, t dom.Todo) (dom.Todo, error) {
	query := `
		UPDATE todos SET title = $3, description = $4, completed = $5, priority = $6, due_date = $7, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + todoColumns
	return pgScanTodo(r.db.QueryRow(ctx, query,
		id, userID, t.Title, t.Description, t.Completed, string(t.Priority), t.DueDate,
	))
}

func (r *PGTodoRepo) Toggle(ctx context.Context, userID, id string) (dom.Todo, error) {
	query := `
		UPDATE todos SET completed = NOT completed, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + todoColumns
	return pgScanTodo(r.db.QueryRow(ctx, query, id, userID))
}

func (r *PGTodoRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGTodoRepo) Search(ctx context.Context, userID, q string) ([]dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos WHERE user_id = $1 AND (title ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\')
		ORDER BY completed ASC, created_at DESC`
	return r.query(ctx, query, userID, containsPattern(q))
}

func (r *PGTodoRepo) Overdue(ctx context.Context, userID string, now time.Time) ([]dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos WHERE user_id = $1 AND completed = FALSE AND due_date IS NOT NULL AND due_date < $2
		ORDER BY due_date ASC`
	return r.query(ctx, query, userID, now)
}

func (r *PGTodoRepo) query(ctx context.Context, query string, args ...any) ([]dom.Todo, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		t, err := pgScanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func pgScanTodo(row pgx.Row) (dom.Todo, error) {
	var (
		t        dom.Todo
		priority string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &priority,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Todo{}, ErrNotFound
	}
	if err != nil {
		return dom.Todo{}, err
	}
	t.Priority = dom.Priority(priority)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	return t, nil
}
