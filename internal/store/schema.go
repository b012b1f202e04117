// Package store provides the SQLite-backed clipboard history with optional
// FTS5 full-text search.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS clipboard_history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	content      TEXT    NOT NULL,
	content_type TEXT    NOT NULL DEFAULT 'text',
	timestamp    INTEGER NOT NULL,
	preview      TEXT    NOT NULL,
	is_pinned    INTEGER NOT NULL DEFAULT 0,
	pin_order    INTEGER
);

CREATE INDEX IF NOT EXISTS idx_history_timestamp ON clipboard_history(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_history_pinned ON clipboard_history(is_pinned, pin_order);
`

// Store wraps a sql.DB with clipboard history operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// One connection serializes writers, which keeps pin order assignment race free.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
