package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dom "todoapp/internal/domain"
	"todoapp/internal/utils"
)

// SQLiteUserRepo implements UserRepo on an embedded SQLite database.
type SQLiteUserRepo struct {
	db *sql.DB
}

func NewSQLiteUserRepo(db *sql.DB) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: db}
}

func (r *SQLiteUserRepo) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	return sqliteScanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username))
}

func (r *SQLiteUserRepo) GetByID(ctx context.Context, id string) (dom.User, error) {
	return sqliteScanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (r *SQLiteUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	u.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, formatTime(u.CreatedAt),
	)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return dom.User{}, ErrDuplicate
		}
		return dom.User{}, err
	}
	return u, nil
}

func sqliteScanUser(row rowScanner) (dom.User, error) {
	var (
		u         dom.User
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return dom.User{}, ErrNotFound
	}
	if err != nil {
		return dom.User{}, err
	}
	u.CreatedAt, err = parseTime(createdAt)
	return u, err
}
