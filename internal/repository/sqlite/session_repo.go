package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"roster-bot/internal/domain"
)

type SqliteSessionRepo struct {
	db *sql.DB
}

func NewSqliteSessionRepo(db *sql.DB) *SqliteSessionRepo {
	return &SqliteSessionRepo{db: db}
}

func (r *SqliteSessionRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM sessions WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	return value, nil
}

func (r *SqliteSessionRepo) Save(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return errors.Wrap(err, "save session")
}

func (r *SqliteSessionRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key)
	return errors.Wrap(err, "delete session")
}
