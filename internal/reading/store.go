package reading

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// MaxRecentLimit caps the number of rows Recent will return.
const MaxRecentLimit = 1000

// Store is the append-only reading store backed by the readings table.
//
// Appends are serialized by a mutex so ids, and therefore Recent's ordering,
// follow insertion order. An append is visible to every Recent call that
// starts after it returns.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore creates a store on an open, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append stores r and returns it with its assigned id.
// A zero timestamp is replaced by the current time.
// Failures are returned as *StoreError.
func (s *Store) Append(ctx context.Context, r Reading) (Reading, error) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO readings (sensor_id, metric, value, timestamp) VALUES (?, ?, ?, ?)",
		r.SensorID,
		string(r.Metric),
		r.Value,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Reading{}, &StoreError{Op: "append", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Reading{}, &StoreError{Op: "append", Err: fmt.Errorf("reading inserted id: %w", err)}
	}
	r.ID = id
	return r, nil
}

// Recent returns up to limit readings for sensorID, most recent first.
// An unknown sensor or a non-positive limit yields an empty slice.
func (s *Store) Recent(ctx context.Context, sensorID string, limit int) ([]Reading, error) {
	if limit <= 0 {
		return []Reading{}, nil
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sensor_id, metric, value, timestamp
		 FROM readings
		 WHERE sensor_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		sensorID, limit,
	)
	if err != nil {
		return nil, &StoreError{Op: "recent", Err: err}
	}
	defer rows.Close()

	readings := make([]Reading, 0, limit)
	for rows.Next() {
		var (
			r      Reading
			metric string
			ts     string
		)
		if err := rows.Scan(&r.ID, &r.SensorID, &metric, &r.Value, &ts); err != nil {
			return nil, &StoreError{Op: "recent", Err: fmt.Errorf("scanning reading: %w", err)}
		}
		r.Metric = Metric(metric)
		r.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, &StoreError{Op: "recent", Err: fmt.Errorf("parsing timestamp: %w", err)}
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "recent", Err: err}
	}
	return readings, nil
}

// Count returns the total number of stored readings.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM readings").Scan(&n); err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return n, nil
}
