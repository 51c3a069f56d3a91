package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"modulys-admin/internal/observability"

	"github.com/lib/pq"
)

const table = "console_session_entries"

func observe(operation string, start time.Time) {
	observability.DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

const schema = `
CREATE TABLE IF NOT EXISTS console_session_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_console_session_entries_expires_at
	ON console_session_entries (expires_at);
`

// EnsureSchema creates the session table if it does not exist. It must run
// before NewSessionStore, which prepares statements against the table.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create session schema: %w", err)
	}
	return nil
}

// SessionStore keeps browser-scoped session entries in PostgreSQL.
type SessionStore struct {
	db                *sql.DB
	now               func() time.Time
	getStmt           *sql.Stmt
	upsertStmt        *sql.Stmt
	deleteStmt        *sql.Stmt
	deleteExpiredStmt *sql.Stmt
}

// NewSessionStore creates a SessionStore with prepared statements.
// Returns an error if statement preparation fails.
func NewSessionStore(db *sql.DB) (*SessionStore, error) {
	s := &SessionStore{db: db, now: time.Now}

	var err error
	s.getStmt, err = db.Prepare(`
		SELECT value
		FROM console_session_entries
		WHERE key = $1 AND expires_at > $2
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.upsertStmt, err = db.Prepare(`
		INSERT INTO console_session_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upsert statement: %w", err)
	}

	s.deleteStmt, err = db.Prepare(`DELETE FROM console_session_entries WHERE key = ANY($1)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.deleteExpiredStmt, err = db.Prepare(`DELETE FROM console_session_entries WHERE expires_at <= $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare deleteExpired statement: %w", err)
	}

	return s, nil
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	defer observe("get", time.Now())
	var value string
	err := s.getStmt.QueryRowContext(ctx, key, s.now()).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get session entry: %w", err)
	}
	return value, true, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	defer observe("upsert", time.Now())
	now := s.now()
	if _, err := s.upsertStmt.ExecContext(ctx, key, value, now.Add(ttl), now); err != nil {
		return fmt.Errorf("failed to set session entry: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	defer observe("delete", time.Now())
	if _, err := s.deleteStmt.ExecContext(ctx, pq.Array(keys)); err != nil {
		return fmt.Errorf("failed to delete session entries: %w", err)
	}
	return nil
}

// DeleteExpired removes entries past their expiry and returns how many were
// removed. Get already ignores them; this only reclaims space.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	defer observe("delete_expired", time.Now())
	result, err := s.deleteExpiredStmt.ExecContext(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired session entries: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the prepared statements.
func (s *SessionStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.getStmt, s.upsertStmt, s.deleteStmt, s.deleteExpiredStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
