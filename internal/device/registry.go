package device

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// key identifies a device. Ids are only unique within a category.
type key struct {
	category Category
	id       string
}

// Registry holds the in-memory state of every known device.
//
// A single RWMutex guards the map; each mutation is one read-modify-write of
// one record under the write lock, so concurrent commands against the same
// device never produce a torn state. Values handed out are copies.
type Registry struct {
	mu      sync.RWMutex
	devices map[key]*Device
	now     func() time.Time
	logger  Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[key]*Device),
		now:     time.Now,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// SetClock replaces the time source used for LastUpdated.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Get returns the device registered under (category, id).
// Returns ErrDeviceNotFound if there is none.
func (r *Registry) Get(category Category, id string) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[key{category, id}]
	if !ok {
		return Device{}, fmt.Errorf("%w: %s/%s", ErrDeviceNotFound, category, id)
	}
	return d.Clone(), nil
}

// Upsert merges the non-nil fields of p into the device, creating it with
// category defaults when absent, and returns the resulting state.
// Values are not validated; Upsert is for trusted sources such as config.
func (r *Registry) Upsert(category Category, id string, p Partial) (Device, error) {
	if !category.Valid() {
		return Device{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if id == "" {
		return Device{}, ErrInvalidDeviceID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.getOrCreateLocked(category, id)
	if p.State != nil {
		d.State = *p.State
	}
	if p.TargetTemperature != nil {
		t := *p.TargetTemperature
		d.TargetTemperature = &t
	}
	d.LastUpdated = r.now()

	return d.Clone(), nil
}

// ApplyCommand validates cmd against its category and, if legal, applies it.
// On a *CommandError the device (if any) is left exactly as it was.
// Applying the same command twice yields the same state.
func (r *Registry) ApplyCommand(cmd Command) (Device, error) {
	if err := ValidateCommand(cmd); err != nil {
		return Device{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.getOrCreateLocked(cmd.Category, cmd.DeviceID)
	d.State = cmd.State
	if cmd.TargetTemperature != nil {
		t := *cmd.TargetTemperature
		d.TargetTemperature = &t
	}
	d.LastUpdated = r.now()

	r.logger.Debug("device command applied",
		"category", cmd.Category,
		"device_id", cmd.DeviceID,
		"state", cmd.State,
		"command_id", cmd.ID,
	)
	return d.Clone(), nil
}

// getOrCreateLocked returns the stored record, creating it with defaults.
// Caller must hold the write lock.
func (r *Registry) getOrCreateLocked(category Category, id string) *Device {
	k := key{category, id}
	d, ok := r.devices[k]
	if !ok {
		d = &Device{
			ID:       id,
			Category: category,
			State:    DefaultState(category),
		}
		r.devices[k] = d
		r.logger.Info("device registered", "category", category, "device_id", id)
	}
	return d
}

// List returns copies of all devices sorted by category then id.
func (r *Registry) List() []Device {
	r.mu.RLock()
	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Category != devices[j].Category {
			return devices[i].Category < devices[j].Category
		}
		return devices[i].ID < devices[j].ID
	})
	return devices
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// CountByCategory returns the number of devices per category. Every known
// category is present, with zero when it has no devices.
func (r *Registry) CountByCategory() map[Category]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Category]int, len(topicSegments))
	for _, c := range AllCategories() {
		counts[c] = 0
	}
	for k := range r.devices {
		counts[k.category]++
	}
	return counts
}
