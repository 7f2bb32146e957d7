// Package kv is a small persistent key-value store for hook scripts,
// backed by the hook_state table.
package kv

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a SQLite-backed key-value store. Values are stored as JSON.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a store on an open database
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Set saves a value. A positive ttl makes the key expire.
func (s *Store) Set(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	now := s.now().UTC()
	var expiresAt *int64
	if ttl > 0 {
		exp := now.Add(ttl).Unix()
		expiresAt = &exp
	}

	_, err = s.db.Exec(`
		INSERT INTO hook_state (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, key, string(data), expiresAt, now.Unix())
	if err != nil {
		return fmt.Errorf("failed to store value: %w", err)
	}
	return nil
}

// Get returns the value for key, or nil if it is missing or expired
func (s *Store) Get(key string) (any, error) {
	var raw string
	var expiresAt sql.NullInt64

	err := s.db.QueryRow(`SELECT value, expires_at FROM hook_state WHERE key = ?`, key).Scan(&raw, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}

	if expiresAt.Valid && s.now().UTC().Unix() >= expiresAt.Int64 {
		_, _ = s.db.Exec(`DELETE FROM hook_state WHERE key = ?`, key)
		return nil, nil
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return value, nil
}

// Delete removes a key and reports whether it existed
func (s *Store) Delete(key string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM hook_state WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete key: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// Keys returns all non-expired keys, sorted
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT key FROM hook_state
		WHERE expires_at IS NULL OR expires_at > ?
		ORDER BY key
	`, s.now().UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// CleanupExpired removes expired entries
func (s *Store) CleanupExpired() (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM hook_state WHERE expires_at IS NOT NULL AND expires_at <= ?
	`, s.now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired entries: %w", err)
	}
	return res.RowsAffected()
}
