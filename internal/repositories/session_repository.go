package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidfriends/ratingclient/internal/db"
)

// PostgresSessionStore persists session values to PostgreSQL, namespaced by a
// profile so several clients can share one database.
type PostgresSessionStore struct {
	pool    db.Pool
	profile string
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool, profile string) *PostgresSessionStore {
	if profile == "" {
		profile = "default"
	}
	return &PostgresSessionStore{pool: pool, profile: profile}
}

// EnsureSchema creates the session_values table if it does not exist.
func (s *PostgresSessionStore) EnsureSchema(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS session_values (
            profile    TEXT NOT NULL,
            key        TEXT NOT NULL,
            value      TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (profile, key)
        )
    `)
	if err != nil {
		return fmt.Errorf("create session_values: %w", err)
	}
	return nil
}

// Get loads the value stored under key.
func (s *PostgresSessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return "", false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var value string
	err = conn.QueryRow(ctx, `
        SELECT value
        FROM session_values
        WHERE profile = $1 AND key = $2
    `, s.profile, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select session value: %w", err)
	}
	return value, true, nil
}

// Set stores or replaces the value under key.
func (s *PostgresSessionStore) Set(ctx context.Context, key, value string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO session_values (profile, key, value, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (profile, key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `, s.profile, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert session value: %w", err)
	}
	return nil
}

// Clear removes every value of the store's profile.
func (s *PostgresSessionStore) Clear(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM session_values WHERE profile = $1`, s.profile); err != nil {
		return fmt.Errorf("delete session values: %w", err)
	}
	return nil
}
