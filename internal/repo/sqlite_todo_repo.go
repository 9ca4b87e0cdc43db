package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dom "todoapp/internal/domain"
)

// Fixed-width UTC layout so that text comparison orders like time.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteTodoRepo implements TodoRepo on an embedded SQLite database.
type SQLiteTodoRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteTodoRepo(db *sql.DB) *SQLiteTodoRepo {
	return &SQLiteTodoRepo{db: db, now: time.Now}
}

func (r *SQLiteTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (id, user_id, title, description, completed, priority, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, nullString(t.Description), t.Completed, string(t.Priority),
		nullTime(t.DueDate), formatTime(now), formatTime(now),
	)
	if err != nil {
		return dom.Todo{}, err
	}
	return r.GetByID(ctx, t.UserID, t.ID)
}

func (r *SQLiteTodoRepo) GetByID(ctx context.Context, userID, id string) (dom.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	return sqliteScanTodo(row)
}

func (r *SQLiteTodoRepo) List(ctx context.Context, userID string, f dom.TodoFilter) ([]dom.Todo, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, *f.Completed)
	}
	if f.Priority != nil {
		where = append(where, "priority = ?")
		args = append(args, string(*f.Priority))
	}
	query := `SELECT ` + todoColumns + ` FROM todos WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY completed ASC, created_at DESC`
	return r.query(ctx, query, args...)
}

func (r *SQLiteTodoRepo) Update(ctx context.Context, userID, id string, t dom.Todo) (dom.Todo, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE todos SET title = ?, description = ?, completed = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Title, nullString(t.Description), t.Completed, string(t.Priority), nullTime(t.DueDate),
		formatTime(r.now().UTC()), id, userID,
	)
	if err := affectedOne(res, err); err != nil {
		return dom.Todo{}, err
	}
	return r.GetByID(ctx, userID, id)
}

func (r *SQLiteTodoRepo) Toggle(ctx context.Context, userID, id string) (dom.Todo, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE todos SET completed = 1 - completed, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		formatTime(r.now().UTC()), id, userID,
	)
	if err := affectedOne(res, err); err != nil {
		return dom.Todo{}, err
	}
	return r.GetByID(ctx, userID, id)
}

func (r *SQLiteTodoRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	return affectedOne(res, err)
}

func (r *SQLiteTodoRepo) Search(ctx context.Context, userID, q string) ([]dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos WHERE user_id = ? AND (lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\')
		ORDER BY completed ASC, created_at DESC`
	pattern := containsPattern(strings.ToLower(q))
	return r.query(ctx, query, userID, pattern, pattern)
}

func (r *SQLiteTodoRepo) Overdue(ctx context.Context, userID string, now time.Time) ([]dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos WHERE user_id = ? AND completed = 0 AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date ASC`
	return r.query(ctx, query, userID, formatTime(now.UTC()))
}

func (r *SQLiteTodoRepo) query(ctx context.Context, query string, args ...any) ([]dom.Todo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		t, err := sqliteScanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func sqliteScanTodo(row rowScanner) (dom.Todo, error) {
	var (
		t                    dom.Todo
		desc, due            sql.NullString
		priority             string
		createdAt, updatedAt string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &desc, &t.Completed, &priority, &due, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return dom.Todo{}, ErrNotFound
	}
	if err != nil {
		return dom.Todo{}, err
	}
	t.Priority = dom.Priority(priority)
	if desc.Valid {
		t.Description = &desc.String
	}
	if due.Valid {
		d, err := parseTime(due.String)
		if err != nil {
			return dom.Todo{}, err
		}
		t.DueDate = &d
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return dom.Todo{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return dom.Todo{}, err
	}
	return t, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
