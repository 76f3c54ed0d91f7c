package sqlite

import (
	"database/sql"

	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TEXT NOT NULL
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(createSessionsTable); err != nil {
		return errors.Wrap(err, "create sessions table")
	}
	return nil
}

// Open opens the database file and applies migrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
