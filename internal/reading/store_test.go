package reading

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-home/migrations"
)

func openTestStore(t *testing.T) (*Store, *database.DB) {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "readings.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewStore(db.DB), db
}

func TestStore_AppendThenRecent(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	stored, err := store.Append(ctx, Reading{SensorID: "bedroom", Metric: MetricTemperature, Value: 31.5, Timestamp: ts})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if stored.ID == 0 {
		t.Error("Append() did not assign an id")
	}

	got, err := store.Recent(ctx, "bedroom", 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent() len = %d, want 1", len(got))
	}
	if got[0].Value != 31.5 || got[0].Metric != MetricTemperature || !got[0].Timestamp.Equal(ts) {
		t.Errorf("Recent()[0] = %+v", got[0])
	}
}

func TestStore_RecentOrderingAcrossSensors(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	// Interleave two sensors; timestamps deliberately out of order to show
	// insertion order wins.
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		sensor := "a"
		if i%2 == 1 {
			sensor = "b"
		}
		r := Reading{SensorID: sensor, Metric: MetricHumidity, Value: float64(i), Timestamp: base.Add(-time.Duration(i) * time.Minute)}
		if _, err := store.Append(ctx, r); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	tests := []struct {
		sensor string
		limit  int
		want   []float64
	}{
		{"a", 3, []float64{8, 6, 4}},
		{"b", 10, []float64{9, 7, 5, 3, 1}},
		{"b", 1, []float64{9}},
		{"a", 0, []float64{}},
		{"a", -5, []float64{}},
		{"unknown", 5, []float64{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s limit %d", tt.sensor, tt.limit), func(t *testing.T) {
			got, err := store.Recent(ctx, tt.sensor, tt.limit)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if got == nil {
				t.Fatal("Recent() returned nil slice, want empty")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Recent() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Value != tt.want[i] {
					t.Errorf("Recent()[%d].Value = %v, want %v", i, got[i].Value, tt.want[i])
				}
				if i > 0 && got[i].ID >= got[i-1].ID {
					t.Errorf("ids not strictly descending at %d", i)
				}
			}
		})
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := store.Append(ctx, Reading{SensorID: "shared", Metric: MetricTemperature, Value: float64(w*perWriter + i)}); err != nil {
					t.Errorf("Append() error = %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	got, err := store.Recent(ctx, "shared", MaxRecentLimit)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != writers*perWriter {
		t.Fatalf("Recent() len = %d, want %d", len(got), writers*perWriter)
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID >= got[i-1].ID {
			t.Fatalf("ids not strictly descending at %d: %d then %d", i, got[i-1].ID, got[i].ID)
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != writers*perWriter {
		t.Errorf("Count() = %d, want %d", n, writers*perWriter)
	}
}

func TestStore_AppendFailureIsStoreError(t *testing.T) {
	store, db := openTestStore(t)
	db.Close() //nolint:errcheck // Closing to force failure

	_, err := store.Append(context.Background(), Reading{SensorID: "x", Metric: MetricTemperature, Value: 1})
	if err == nil {
		t.Fatal("Append() on closed database expected error")
	}

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Append() error = %T, want *StoreError", err)
	}
	if storeErr.Op != "append" {
		t.Errorf("Op = %q, want append", storeErr.Op)
	}
	if !errors.Is(err, ErrIOFailure) {
		t.Error("errors.Is(err, ErrIOFailure) = false")
	}
}

func TestStore_AppendDefaultsTimestamp(t *testing.T) {
	store, _ := openTestStore(t)

	before := time.Now().Add(-time.Second)
	r, err := store.Append(context.Background(), Reading{SensorID: "x", Metric: MetricMoisture, Value: 12})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if r.Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want about now", r.Timestamp)
	}
}
