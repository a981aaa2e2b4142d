// Package sqlite opens the relational store backing domain records and the
// chat history log.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// Open opens (creating if needed) the SQLite database at path and bootstraps
// the schema. WAL mode keeps concurrent resolution reads from blocking
// single-turn appends. path ":memory:" opens an ephemeral database.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	caller_id   TEXT NOT NULL,
	reference   TEXT NOT NULL UNIQUE,
	equipment   TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'pending',
	ordered_at  TIMESTAMP NOT NULL,
	expected_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_caller ON orders(caller_id, ordered_at);

CREATE TABLE IF NOT EXISTS invoices (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	caller_id TEXT NOT NULL,
	reference TEXT NOT NULL UNIQUE,
	amount    REAL NOT NULL,
	currency  TEXT NOT NULL DEFAULT 'USD',
	status    TEXT NOT NULL DEFAULT 'pending',
	issued_at TIMESTAMP NOT NULL,
	due_at    TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_invoices_caller ON invoices(caller_id, issued_at);

CREATE TABLE IF NOT EXISTS warranties (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	caller_id TEXT NOT NULL,
	equipment TEXT NOT NULL,
	coverage  TEXT NOT NULL DEFAULT '',
	status    TEXT NOT NULL DEFAULT 'active',
	starts_at TIMESTAMP NOT NULL,
	ends_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_warranties_caller ON warranties(caller_id, ends_at);

CREATE TABLE IF NOT EXISTS appointments (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	caller_id    TEXT NOT NULL,
	equipment    TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'scheduled',
	scheduled_at TIMESTAMP NOT NULL,
	notes        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_appointments_caller ON appointments(caller_id, scheduled_at);

CREATE TABLE IF NOT EXISTS tickets (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	caller_id  TEXT NOT NULL,
	reference  TEXT NOT NULL UNIQUE,
	subject    TEXT NOT NULL,
	body       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'open',
	priority   TEXT NOT NULL DEFAULT 'normal',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tickets_caller ON tickets(caller_id, created_at);

CREATE TABLE IF NOT EXISTS chat_turns (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	caller_id   TEXT NOT NULL,
	message     TEXT NOT NULL,
	answer      TEXT NOT NULL,
	intent      TEXT NOT NULL,
	data_source TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_turns_caller ON chat_turns(caller_id, created_at DESC, id DESC);
`
