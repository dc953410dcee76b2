package device

import "time"

// Category classifies a device. A device's category never changes; the
// registry keys devices by (category, id).
type Category string

// Category constants.
const (
	CategoryLight      Category = "light"
	CategoryThermostat Category = "thermostat"
	CategoryLock       Category = "lock"
)

// AllCategories returns all valid categories.
func AllCategories() []Category {
	return []Category{CategoryLight, CategoryThermostat, CategoryLock}
}

// topicSegments maps each category to the segment used in device topics.
// Lights use the plural form on the wire.
var topicSegments = map[Category]string{
	CategoryLight:      "lights",
	CategoryThermostat: "thermostat",
	CategoryLock:       "lock",
}

// TopicSegment returns the topic path segment for the category,
// e.g. "lights" for CategoryLight.
func (c Category) TopicSegment() string {
	return topicSegments[c]
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := topicSegments[c]
	return ok
}

// CategoryFromTopicSegment resolves a device topic segment to its category.
func CategoryFromTopicSegment(segment string) (Category, bool) {
	for c, s := range topicSegments {
		if s == segment {
			return c, true
		}
	}
	return "", false
}

// StateValue is the primary state of a device.
type StateValue string

// State values. Lights and thermostats use on/off, locks use locked/unlocked.
const (
	StateOn       StateValue = "on"
	StateOff      StateValue = "off"
	StateLocked   StateValue = "locked"
	StateUnlocked StateValue = "unlocked"
)

// Device is the registry's view of an actuator.
type Device struct {
	ID       string     `json:"id"`
	Category Category   `json:"category"`
	State    StateValue `json:"state"`

	// TargetTemperature is only ever set for thermostats.
	TargetTemperature *float64 `json:"target_temperature,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
}

// Clone returns an independent copy of the device.
func (d Device) Clone() Device {
	if d.TargetTemperature != nil {
		t := *d.TargetTemperature
		d.TargetTemperature = &t
	}
	return d
}

// Command is a validated request to change one device's state.
// It is produced by the command decoder and consumed by Registry.ApplyCommand.
type Command struct {
	// ID correlates the command across logs and acknowledgements.
	ID string `json:"id,omitempty"`

	DeviceID string     `json:"device_id"`
	Category Category   `json:"category"`
	State    StateValue `json:"state"`

	// TargetTemperature is optional and legal only for thermostats.
	TargetTemperature *float64 `json:"target_temperature,omitempty"`
}

// Partial holds the fields Upsert merges into a device. Nil fields are left unchanged.
type Partial struct {
	State             *StateValue
	TargetTemperature *float64
}

// DefaultState returns the state a device of category c starts in.
func DefaultState(c Category) StateValue {
	if c == CategoryLock {
		return StateLocked
	}
	return StateOff
}
