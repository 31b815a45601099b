package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/dispatch"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id  TEXT    NOT NULL,
	method      TEXT    NOT NULL,
	url         TEXT    NOT NULL,
	status      TEXT    NOT NULL,
	message     TEXT    NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	started_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS dispatches_started_at ON dispatches (started_at);
`

// Entry is one stored outcome
type Entry struct {
	ID        int64
	RequestID string
	Method    string
	URL       string
	Status    string
	Message   string
	Duration  time.Duration
	StartedAt time.Time
}

// Summary counts stored outcomes by status
type Summary struct {
	Total     int
	Success   int
	Failure   int
	Cancelled int
}

// Store is a SQLite backed dispatch history
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open opens or creates the history database. Accepted forms are a plain
// file path, sqlite://path and sqlite:path.
func Open(connectionString string) (*Store, error) {
	dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, queryTimeout: 30 * time.Second}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores one outcome
func (s *Store) Record(ctx context.Context, o dispatch.Outcome) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	startedAt := o.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatches (request_id, method, url, status, message, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.RequestID, o.Method, o.URL, o.Status, o.Message,
		o.Duration.Milliseconds(), startedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("recording dispatch: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, method, url, status, message, duration_ms, started_at
		 FROM dispatches ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var durationMs, startedAt int64
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Method, &e.URL, &e.Status, &e.Message, &durationMs, &startedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.StartedAt = time.UnixMilli(startedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Summarize counts every stored outcome by status
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM dispatches GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var sum Summary
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Summary{}, fmt.Errorf("failed to scan row: %w", err)
		}
		sum.Total += n
		switch status {
		case dispatch.OutcomeSuccess:
			sum.Success += n
		case dispatch.OutcomeFailure:
			sum.Failure += n
		case dispatch.OutcomeCancelled:
			sum.Cancelled += n
		}
	}
	return sum, rows.Err()
}

// parseConnectionString accepts a plain path, sqlite://path or sqlite:path
func parseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)

	switch {
	case strings.HasPrefix(connStr, "sqlite://"):
		connStr = strings.TrimPrefix(connStr, "sqlite://")
	case strings.HasPrefix(connStr, "sqlite:"):
		connStr = strings.TrimPrefix(connStr, "sqlite:")
	case strings.Contains(connStr, "://"):
		return "", fmt.Errorf("unsupported database scheme in %q: only sqlite is supported", connStr)
	}

	if connStr == "" {
		return "", fmt.Errorf("empty database path")
	}
	return connStr, nil
}

var _ dispatch.Recorder = (*Store)(nil)
