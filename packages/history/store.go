// Package history persists completed exchanges to a local SQLite database so
// past requests can be listed from the CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/itsJohnCnstn/httpcall/packages/client"
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id          TEXT PRIMARY KEY,
	method      TEXT NOT NULL,
	url         TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_created_at ON exchanges(created_at);
`

// Entry is one recorded exchange
type Entry struct {
	ID         string
	Method     string
	URL        string
	StatusCode int
	DurationMs int64
	Error      string
	CreatedAt  time.Time
}

// Store records exchanges in SQLite. It implements client.Recorder.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open opens (or creates) the history database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{
		db:           db,
		queryTimeout: 5 * time.Second,
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record persists one exchange. Insert failures are swallowed: recording
// history must never fail the request it observes.
func (s *Store) Record(ex client.Exchange) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	errText := ""
	if ex.Err != nil {
		errText = ex.Err.Error()
	}

	_, _ = s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, method, url, status_code, duration_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), ex.Method, ex.URL, ex.StatusCode, ex.Duration.Milliseconds(), errText, time.Now().UTC(),
	)
}

// List returns the most recent entries, newest first
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, method, url, status_code, duration_ms, error, created_at
		 FROM exchanges ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Method, &e.URL, &e.StatusCode, &e.DurationMs, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Clear deletes all recorded entries
func (s *Store) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM exchanges`)
	return err
}
