package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_values (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`

type sessionValue struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SQLiteSessionStore persists session values in a local sqlite file so the
// session survives process restarts.
type SQLiteSessionStore struct {
	db *sqlx.DB
}

// NewSQLiteSessionStore initialises the schema on handle and returns a store.
func NewSQLiteSessionStore(handle *sqlx.DB) (*SQLiteSessionStore, error) {
	if handle == nil {
		return nil, ErrStoreClosed
	}
	if _, err := handle.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("init session schema: %w", err)
	}
	return &SQLiteSessionStore{db: handle}, nil
}

// Get loads the value stored under key.
func (s *SQLiteSessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var row sessionValue
	err := s.db.GetContext(ctx, &row, "SELECT key, value, updated_at FROM session_values WHERE key = ? LIMIT 1", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select session value: %w", err)
	}
	return row.Value, true, nil
}

// Set stores or replaces the value under key.
func (s *SQLiteSessionStore) Set(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session write: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO session_values (key, value, updated_at)
		VALUES (:key, :value, :updated_at)`, sessionValue{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("upsert session value: %w", err)
	}
	return tx.Commit()
}

// Clear removes every value.
func (s *SQLiteSessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_values"); err != nil {
		return fmt.Errorf("delete session values: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}
