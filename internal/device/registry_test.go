package device

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// =============================================================================
// Get / Upsert
// =============================================================================

func TestRegistry_GetNotFound(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get(CategoryLight, "missing")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Get() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_GetIsExactMatch(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Upsert(CategoryLight, "hall", Partial{}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Same id under another category is a different device
	if _, err := reg.Get(CategoryLock, "hall"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Get(lock, hall) error = %v, want ErrDeviceNotFound", err)
	}
	if _, err := reg.Get(CategoryLight, "Hall"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Get(light, Hall) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_UpsertDefaults(t *testing.T) {
	tests := []struct {
		category Category
		want     StateValue
	}{
		{CategoryLight, StateOff},
		{CategoryThermostat, StateOff},
		{CategoryLock, StateLocked},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			reg := NewRegistry()
			d, err := reg.Upsert(tt.category, "dev", Partial{})
			if err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			if d.State != tt.want {
				t.Errorf("State = %q, want %q", d.State, tt.want)
			}
			if d.TargetTemperature != nil {
				t.Errorf("TargetTemperature = %v, want nil", *d.TargetTemperature)
			}
		})
	}
}

func TestRegistry_UpsertMerges(t *testing.T) {
	reg := NewRegistry()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.SetClock(fixedClock(now))

	if _, err := reg.Upsert(CategoryThermostat, "living_room", Partial{TargetTemperature: ptr(21.0)}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	d, err := reg.Upsert(CategoryThermostat, "living_room", Partial{State: ptr(StateOn)})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if d.State != StateOn {
		t.Errorf("State = %q, want on", d.State)
	}
	if d.TargetTemperature == nil || *d.TargetTemperature != 21.0 {
		t.Errorf("TargetTemperature = %v, want 21 kept from first upsert", d.TargetTemperature)
	}
	if !d.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %v, want %v", d.LastUpdated, now)
	}
}

func TestRegistry_UpsertRejectsUnknownCategory(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Upsert("blind", "x", Partial{}); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Upsert() error = %v, want ErrUnknownCategory", err)
	}
	if _, err := reg.Upsert(CategoryLight, "", Partial{}); !errors.Is(err, ErrInvalidDeviceID) {
		t.Errorf("Upsert() error = %v, want ErrInvalidDeviceID", err)
	}
}

// =============================================================================
// ApplyCommand
// =============================================================================

func TestRegistry_ApplyThenGet(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"light on", Command{DeviceID: "living_room", Category: CategoryLight, State: StateOn}},
		{"light off", Command{DeviceID: "living_room", Category: CategoryLight, State: StateOff}},
		{"thermostat on", Command{DeviceID: "hall", Category: CategoryThermostat, State: StateOn}},
		{"thermostat with target", Command{DeviceID: "hall", Category: CategoryThermostat, State: StateOn, TargetTemperature: ptr(19.5)}},
		{"lock unlocked", Command{DeviceID: "front_door", Category: CategoryLock, State: StateUnlocked}},
		{"lock locked", Command{DeviceID: "front_door", Category: CategoryLock, State: StateLocked}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			applied, err := reg.ApplyCommand(tt.cmd)
			if err != nil {
				t.Fatalf("ApplyCommand() error = %v", err)
			}

			got, err := reg.Get(tt.cmd.Category, tt.cmd.DeviceID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.State != tt.cmd.State || applied.State != tt.cmd.State {
				t.Errorf("State = %q (applied %q), want %q", got.State, applied.State, tt.cmd.State)
			}
			if tt.cmd.TargetTemperature != nil {
				if got.TargetTemperature == nil || *got.TargetTemperature != *tt.cmd.TargetTemperature {
					t.Errorf("TargetTemperature = %v, want %v", got.TargetTemperature, *tt.cmd.TargetTemperature)
				}
			}
		})
	}
}

func TestRegistry_ApplyInvalidFieldLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name      string
		seed      Command
		cmd       Command
		wantField string
	}{
		{
			name:      "temperature on lock",
			seed:      Command{DeviceID: "door", Category: CategoryLock, State: StateUnlocked},
			cmd:       Command{DeviceID: "door", Category: CategoryLock, State: StateLocked, TargetTemperature: ptr(20.0)},
			wantField: "temperature",
		},
		{
			name:      "temperature on light",
			seed:      Command{DeviceID: "lamp", Category: CategoryLight, State: StateOn},
			cmd:       Command{DeviceID: "lamp", Category: CategoryLight, State: StateOff, TargetTemperature: ptr(20.0)},
			wantField: "temperature",
		},
		{
			name:      "on for lock",
			seed:      Command{DeviceID: "door", Category: CategoryLock, State: StateLocked},
			cmd:       Command{DeviceID: "door", Category: CategoryLock, State: StateOn},
			wantField: "state",
		},
		{
			name:      "locked for light",
			seed:      Command{DeviceID: "lamp", Category: CategoryLight, State: StateOn},
			cmd:       Command{DeviceID: "lamp", Category: CategoryLight, State: StateLocked},
			wantField: "state",
		},
		{
			name:      "garbage state for thermostat",
			seed:      Command{DeviceID: "hall", Category: CategoryThermostat, State: StateOn, TargetTemperature: ptr(21.0)},
			cmd:       Command{DeviceID: "hall", Category: CategoryThermostat, State: "warm", TargetTemperature: ptr(25.0)},
			wantField: "state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.SetClock(fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
			before, err := reg.ApplyCommand(tt.seed)
			if err != nil {
				t.Fatalf("seed ApplyCommand() error = %v", err)
			}

			reg.SetClock(fixedClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
			_, err = reg.ApplyCommand(tt.cmd)

			var cmdErr *CommandError
			if !errors.As(err, &cmdErr) {
				t.Fatalf("ApplyCommand() error = %v, want *CommandError", err)
			}
			if cmdErr.Reason != ReasonInvalidFieldForCategory {
				t.Errorf("Reason = %q, want %q", cmdErr.Reason, ReasonInvalidFieldForCategory)
			}
			if cmdErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cmdErr.Field, tt.wantField)
			}
			if !errors.Is(err, ErrInvalidFieldForCategory) {
				t.Error("errors.Is(err, ErrInvalidFieldForCategory) = false")
			}

			after, err := reg.Get(tt.seed.Category, tt.seed.DeviceID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if after.State != before.State || !after.LastUpdated.Equal(before.LastUpdated) {
				t.Errorf("device mutated: before %+v, after %+v", before, after)
			}
			if (before.TargetTemperature == nil) != (after.TargetTemperature == nil) ||
				(before.TargetTemperature != nil && *before.TargetTemperature != *after.TargetTemperature) {
				t.Errorf("target temperature mutated: before %v, after %v", before.TargetTemperature, after.TargetTemperature)
			}
		})
	}
}

func TestRegistry_ApplyInvalidDoesNotCreate(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.ApplyCommand(Command{DeviceID: "door", Category: CategoryLock, State: StateOn})
	if err == nil {
		t.Fatal("ApplyCommand() expected error")
	}
	if reg.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after rejected command", reg.Count())
	}
}

func TestRegistry_ApplyIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	cmd := Command{DeviceID: "hall", Category: CategoryThermostat, State: StateOn, TargetTemperature: ptr(22.0)}

	first, err := reg.ApplyCommand(cmd)
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	second, err := reg.ApplyCommand(cmd)
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	if first.State != second.State || *first.TargetTemperature != *second.TargetTemperature {
		t.Errorf("duplicate delivery changed state: %+v vs %+v", first, second)
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestRegistry_ApplyUnknownCategory(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.ApplyCommand(Command{DeviceID: "x", Category: "blind", State: StateOn})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("ApplyCommand() error = %v, want ErrUnknownCategory", err)
	}
}

func TestRegistry_ReturnedValuesAreCopies(t *testing.T) {
	reg := NewRegistry()
	d, err := reg.ApplyCommand(Command{DeviceID: "hall", Category: CategoryThermostat, State: StateOn, TargetTemperature: ptr(20.0)})
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}

	*d.TargetTemperature = 99
	d.State = StateOff

	got, _ := reg.Get(CategoryThermostat, "hall")
	if got.State != StateOn || *got.TargetTemperature != 20.0 {
		t.Errorf("registry mutated through returned value: %+v", got)
	}
}

// =============================================================================
// List / Count
// =============================================================================

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewRegistry()
	for _, c := range []Command{
		{DeviceID: "b", Category: CategoryLock, State: StateLocked},
		{DeviceID: "z", Category: CategoryLight, State: StateOn},
		{DeviceID: "a", Category: CategoryLight, State: StateOn},
	} {
		if _, err := reg.ApplyCommand(c); err != nil {
			t.Fatalf("ApplyCommand() error = %v", err)
		}
	}

	list := reg.List()
	want := []string{"light/a", "light/z", "lock/b"}
	if len(list) != len(want) {
		t.Fatalf("List() len = %d, want %d", len(list), len(want))
	}
	for i, d := range list {
		if got := fmt.Sprintf("%s/%s", d.Category, d.ID); got != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, got, want[i])
		}
	}

	counts := reg.CountByCategory()
	if counts[CategoryLight] != 2 || counts[CategoryLock] != 1 {
		t.Errorf("CountByCategory() = %v", counts)
	}
	if n, ok := counts[CategoryThermostat]; !ok || n != 0 {
		t.Errorf("CountByCategory() thermostat = %d, %v; want 0, true", n, ok)
	}
}

// =============================================================================
// Concurrency
// =============================================================================

func TestRegistry_ConcurrentCommands(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			temp := float64(15 + i%10)
			_, _ = reg.ApplyCommand(Command{DeviceID: "hall", Category: CategoryThermostat, State: StateOn, TargetTemperature: &temp}) //nolint:errcheck // Valid command
		}(i)
		go func() {
			defer wg.Done()
			_, _ = reg.ApplyCommand(Command{DeviceID: "hall", Category: CategoryThermostat, State: StateOff}) //nolint:errcheck // Valid command
			_, _ = reg.Get(CategoryThermostat, "hall")                                                         //nolint:errcheck // Read under contention
		}()
	}
	wg.Wait()

	d, err := reg.Get(CategoryThermostat, "hall")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.State != StateOn && d.State != StateOff {
		t.Errorf("torn state %q", d.State)
	}
	if d.TargetTemperature == nil || *d.TargetTemperature < 15 || *d.TargetTemperature > 24 {
		t.Errorf("TargetTemperature = %v, want a value written by one command", d.TargetTemperature)
	}
}

// =============================================================================
// Category helpers
// =============================================================================

func TestCategoryTopicSegments(t *testing.T) {
	tests := []struct {
		segment string
		want    Category
		ok      bool
	}{
		{"lights", CategoryLight, true},
		{"thermostat", CategoryThermostat, true},
		{"lock", CategoryLock, true},
		{"light", "", false},
		{"blinds", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			got, ok := CategoryFromTopicSegment(tt.segment)
			if got != tt.want || ok != tt.ok {
				t.Errorf("CategoryFromTopicSegment(%q) = (%q, %v), want (%q, %v)", tt.segment, got, ok, tt.want, tt.ok)
			}
			if ok && got.TopicSegment() != tt.segment {
				t.Errorf("TopicSegment() = %q, want %q", got.TopicSegment(), tt.segment)
			}
		})
	}
}
