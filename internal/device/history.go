package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// History source values.
const (
	HistorySourceCommand    = "command"
	HistorySourceCorrective = "corrective"
	HistorySourceConfig     = "config"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryEntry is one recorded device state.
type HistoryEntry struct {
	ID                int64      `json:"id"`
	Category          Category   `json:"category"`
	DeviceID          string     `json:"device_id"`
	State             StateValue `json:"state"`
	TargetTemperature *float64   `json:"target_temperature,omitempty"`
	Source            string     `json:"source"`
	CreatedAt         time.Time  `json:"created_at"`
}

// HistoryRepository stores and retrieves device state history.
// Implementations must be safe for concurrent use.
type HistoryRepository interface {
	// Record appends the device's current state.
	Record(ctx context.Context, d Device, source string) error

	// History returns the newest entries first. Limits outside 1..200
	// fall back to 50 or clamp to 200.
	History(ctx context.Context, category Category, id string, limit int) ([]HistoryEntry, error)
}

// SQLiteHistory implements HistoryRepository on the device_states table.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory creates a history repository on an open, migrated database.
func NewSQLiteHistory(db *sql.DB) *SQLiteHistory {
	return &SQLiteHistory{db: db}
}

// Record inserts a history row for d.
func (h *SQLiteHistory) Record(ctx context.Context, d Device, source string) error {
	if d.ID == "" {
		return ErrInvalidDeviceID
	}
	if source == "" {
		source = HistorySourceCommand
	}
	created := d.LastUpdated
	if created.IsZero() {
		created = time.Now()
	}

	var target sql.NullFloat64
	if d.TargetTemperature != nil {
		target = sql.NullFloat64{Float64: *d.TargetTemperature, Valid: true}
	}

	_, err := h.db.ExecContext(ctx,
		`INSERT INTO device_states (category, device_id, state, target_temperature, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(d.Category),
		d.ID,
		string(d.State),
		target,
		source,
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting device state: %w", err)
	}
	return nil
}

// History returns recorded states for one device, newest first.
func (h *SQLiteHistory) History(ctx context.Context, category Category, id string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT id, category, device_id, state, target_temperature, source, created_at
		 FROM device_states
		 WHERE category = ? AND device_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		string(category), id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying device states: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e         HistoryEntry
			cat       string
			state     string
			target    sql.NullFloat64
			createdAt string
		)
		if err := rows.Scan(&e.ID, &cat, &e.DeviceID, &state, &target, &e.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning device state: %w", err)
		}
		e.Category = Category(cat)
		e.State = StateValue(state)
		if target.Valid {
			t := target.Float64
			e.TargetTemperature = &t
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing device state timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device states: %w", err)
	}
	return entries, nil
}
