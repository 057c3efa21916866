// Package journal persists board and link events in SQLite for diagnostics.
// It answers the observability question around suppressed non-move signals:
// replaced-at-origin and conflicting lifts never generate move events, but
// they do leave a trace here.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Event kinds recorded by the journal.
const (
	KindMove             = "MOVE"
	KindCancelled        = "CANCELLED"
	KindReplacedAtOrigin = "REPLACED_AT_ORIGIN"
	KindConflictingLift  = "CONFLICTING_LIFT"
	KindLinkFailure      = "LINK_FAILURE"
	KindReset            = "RESET"
)

// Entry is one recorded event.
type Entry struct {
	ID     int64
	At     time.Time
	Kind   string
	Detail string
}

// Store is an append-only SQLite event journal. A nil *Store is valid and
// makes every method a no-op, so callers never guard the optional journal.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at_ms INTEGER NOT NULL,
	kind TEXT NOT NULL,
	detail TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_at_ms ON events(at_ms);
`

// Open opens (and if needed creates) a journal at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Store{db: db, clock: time.Now}, nil
}

// Close closes the journal handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append records one event. No-op on a nil store.
func (s *Store) Append(ctx context.Context, kind, detail string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	at := s.clock().UTC().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (at_ms, kind, detail) VALUES (?, ?, ?)",
		at, kind, detail)
	if err != nil {
		return fmt.Errorf("append journal event: %w", err)
	}
	return nil
}

// Recent returns up to n most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, at_ms, kind, detail FROM events ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("query journal events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var atMillis int64
		if err := rows.Scan(&e.ID, &atMillis, &e.Kind, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		e.At = time.UnixMilli(atMillis).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
