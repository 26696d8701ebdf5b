// Package journal keeps a local SQLite record of chat sessions so
// conversations can be listed and exported after the client exits.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iksnae/genie/internal"
	_ "modernc.org/sqlite"
)

// ErrSessionNotFound is returned when no turns were recorded for a session
var ErrSessionNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS turns_session ON turns(session_id);
`

// Store records turns in a SQLite database
type Store struct {
	db *sql.DB
}

// SessionSummary describes a recorded session for listings
type SessionSummary struct {
	ID        string    `json:"id" yaml:"id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Turns     int       `json:"turns" yaml:"turns"`
	LastText  string    `json:"last_text" yaml:"last_text"`
}

// Open opens (creating if needed) the journal at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal ping failed: %w", err)
	}

	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database, creating the schema if needed
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordTurn inserts the turn, or updates its text and status when the
// turn was recorded before
func (s *Store) RecordTurn(ctx context.Context, sessionID string, turn internal.ChatTurn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, started_at) VALUES (?, ?)`,
		sessionID, turn.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("insert session failed: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO turns (id, session_id, role, text, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text, status = excluded.status`,
		turn.ID, sessionID, string(turn.Role), turn.Text, string(turn.Status), turn.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("upsert turn failed: %w", err)
	}

	return tx.Commit()
}

// Sessions lists recorded sessions, most recent first
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.started_at, COUNT(t.id),
		       COALESCE((SELECT text FROM turns WHERE session_id = s.id ORDER BY created_at DESC, rowid DESC LIMIT 1), '')
		FROM sessions s
		LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var started int64
		if err := rows.Scan(&sum.ID, &started, &sum.Turns, &sum.LastText); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		sum.StartedAt = time.Unix(0, started)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// LoadSession reads a session and its turns in recorded order. The id may
// be a unique prefix.
func (s *Store) LoadSession(ctx context.Context, id string) (*internal.ChatSession, error) {
	var (
		fullID  string
		started int64
		matches int
	)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at FROM sessions WHERE id = ? OR id LIKE ? || '%' ORDER BY id = ? DESC`,
		id, id, id)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	for rows.Next() {
		var rid string
		var rstart int64
		if err := rows.Scan(&rid, &rstart); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if rid == id {
			fullID, started, matches = rid, rstart, 1
			break
		}
		if matches == 0 {
			fullID, started = rid, rstart
		}
		matches++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	switch {
	case matches == 0:
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	case matches > 1:
		return nil, fmt.Errorf("session prefix %q is ambiguous (%d matches)", id, matches)
	}

	session := &internal.ChatSession{ID: fullID, StartedAt: time.Unix(0, started)}
	turns, err := s.db.QueryContext(ctx,
		`SELECT id, role, text, status, created_at FROM turns WHERE session_id = ? ORDER BY created_at, rowid`,
		fullID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer turns.Close()

	for turns.Next() {
		var turn internal.ChatTurn
		var role, status string
		var created int64
		if err := turns.Scan(&turn.ID, &role, &turn.Text, &status, &created); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		turn.Role = internal.Role(role)
		turn.Status = internal.TurnStatus(status)
		turn.CreatedAt = time.Unix(0, created)
		session.Append(turn)
	}
	if err := turns.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return session, nil
}
