package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore keeps slots in a single session_slots table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates the backing table if it does not exist yet.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	q := `
CREATE TABLE IF NOT EXISTS session_slots (
  slot_key   text PRIMARY KEY,
  value      text NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
)`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return nil, fmt.Errorf("create session_slots: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_slots WHERE slot_key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query slot %q: %w", key, err)
	}
	return v, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO session_slots (slot_key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (slot_key) DO UPDATE
  SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, key, value)
	if err != nil {
		return fmt.Errorf("upsert slot %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_slots WHERE slot_key = $1`, key); err != nil {
		return fmt.Errorf("delete slot %q: %w", key, err)
	}
	return nil
}
