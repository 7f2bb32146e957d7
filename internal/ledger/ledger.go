// Package ledger provides an append-only history of the actions headsetd
// issued (LED switches, notifications, sidetone and settings changes).
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event in the ledger
type EventType string

const (
	EventLedOn           EventType = "led_on"
	EventLedOff          EventType = "led_off"
	EventNotification    EventType = "notification"
	EventSidetone        EventType = "sidetone"
	EventSettingsChanged EventType = "settings_changed"
	EventCommandFailed   EventType = "command_failed"
)

// Entry represents a single event in the ledger
type Entry struct {
	ID        string         `json:"id"`
	TickID    string         `json:"tick_id"`
	EventType EventType      `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	Device    string         `json:"device,omitempty"`
	Source    string         `json:"source"` // "startup", "poll", "intent"
	Payload   map[string]any `json:"payload,omitempty"`
}

// Ledger provides append-only action logging
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Append adds a new event to the ledger and returns its generated ID.
// Timestamp is filled in when zero.
func (l *Ledger) Append(entry Entry) (string, error) {
	var payloadJSON []byte
	var err error

	if entry.Payload != nil {
		payloadJSON, err = json.Marshal(entry.Payload)
		if err != nil {
			return "", fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}

	_, err = l.db.Exec(`
		INSERT INTO action_ledger (id, tick_id, event_type, timestamp, device, source, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.TickID, string(entry.EventType), entry.Timestamp.UTC().Unix(), entry.Device, entry.Source, string(payloadJSON))
	if err != nil {
		return "", fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return entry.ID, nil
}

// GetByType returns entries filtered by event type, newest first
func (l *Ledger) GetByType(eventType EventType, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, tick_id, event_type, timestamp, device, source, payload
		FROM action_ledger
		WHERE event_type = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, string(eventType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// Recent returns the newest entries of any type
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, tick_id, event_type, timestamp, device, source, payload
		FROM action_ledger
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// GetByTimeRange returns entries within a time range
func (l *Ledger) GetByTimeRange(start, end time.Time, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, tick_id, event_type, timestamp, device, source, payload
		FROM action_ledger
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, start.Unix(), end.Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).Unix()
	result, err := l.db.Exec(`
		DELETE FROM action_ledger WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (l *Ledger) scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var payloadStr, tickID, device, source sql.NullString
		var timestamp int64

		err := rows.Scan(
			&entry.ID, &tickID, &entry.EventType, &timestamp, &device, &source, &payloadStr,
		)
		if err != nil {
			return nil, err
		}

		entry.Timestamp = time.Unix(timestamp, 0).UTC()
		entry.TickID = tickID.String
		entry.Device = device.String
		entry.Source = source.String

		if payloadStr.Valid && payloadStr.String != "" {
			entry.Payload = make(map[string]any)
			if err := json.Unmarshal([]byte(payloadStr.String), &entry.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
