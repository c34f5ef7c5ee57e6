package steering

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GainStore persists tuned gains between runs.
type GainStore interface {
	Load(ctx context.Context) (Gains, error)
	Save(ctx context.Context, g Gains) error
}

// SQLiteGainStore implements GainStore using SQLite.
type SQLiteGainStore struct {
	db *sql.DB
}

// NewSQLiteGainStore creates a new SQLite-backed gain store.
func NewSQLiteGainStore(db *sql.DB) *SQLiteGainStore {
	return &SQLiteGainStore{db: db}
}

// Load returns the stored gains, or ErrNoGains if none were saved.
func (s *SQLiteGainStore) Load(ctx context.Context) (Gains, error) {
	var g Gains
	err := s.db.QueryRowContext(ctx, `SELECT p, i, d FROM steering_gains WHERE id = 1`).
		Scan(&g.P, &g.I, &g.D)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Gains{}, ErrNoGains
		}
		return Gains{}, fmt.Errorf("querying steering gains: %w", err)
	}
	return g, nil
}

// Save stores g, replacing any previous gains.
func (s *SQLiteGainStore) Save(ctx context.Context, g Gains) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO steering_gains (id, p, i, d, updated_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			p = excluded.p, i = excluded.i, d = excluded.d, updated_at = excluded.updated_at`,
		g.P, g.I, g.D, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving steering gains: %w", err)
	}
	return nil
}
