// Package db provides the SQLite connection and schema for headsetd.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Action ledger - append-only history of side effects issued by the daemon.
	// Battery readings themselves are never stored.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS action_ledger (
			id TEXT PRIMARY KEY,
			tick_id TEXT,
			event_type TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			device TEXT,
			source TEXT,
			payload TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_action_ledger_type_ts ON action_ledger(event_type, timestamp);
		CREATE INDEX IF NOT EXISTS idx_action_ledger_ts ON action_ledger(timestamp);
	`)
	if err != nil {
		return fmt.Errorf("failed to create action_ledger table: %w", err)
	}

	// Hook script key-value state
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS hook_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at INTEGER,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_hook_state_expires ON hook_state(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create hook_state table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
