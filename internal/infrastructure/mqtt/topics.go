package mqtt

import "fmt"

// DefaultRoot is the topic root used when Topics.Root is empty.
const DefaultRoot = "home"

// Topics provides builders for homectl MQTT topics under one root.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{Root: "home"}
//	topics.SensorReading("temperature", "bedroom")
//	// Returns: "home/sensors/temperature/bedroom"
type Topics struct {
	Root string
}

func (t Topics) root() string {
	if t.Root == "" {
		return DefaultRoot
	}
	return t.Root
}

// =============================================================================
// Inbound Topics
// =============================================================================

// DeviceCommand returns the command topic for a device.
// segment is the category's topic segment (lights, thermostat, lock).
//
// Example: home/devices/lights/living_room
func (t Topics) DeviceCommand(segment, deviceID string) string {
	return fmt.Sprintf("%s/devices/%s/%s", t.root(), segment, deviceID)
}

// SensorReading returns the topic a sensor publishes readings on.
//
// Example: home/sensors/temperature/bedroom
func (t Topics) SensorReading(metric, sensorID string) string {
	return fmt.Sprintf("%s/sensors/%s/%s", t.root(), metric, sensorID)
}

// AllDeviceCommands returns the wildcard for every device command.
func (t Topics) AllDeviceCommands() string {
	return t.root() + "/devices/#"
}

// AllSensorReadings returns the wildcard for every sensor reading.
func (t Topics) AllSensorReadings() string {
	return t.root() + "/sensors/#"
}

// =============================================================================
// Outbound Topics
// =============================================================================

// Alert returns the alert topic for a metric.
//
// Example: home/alerts/temperature
func (t Topics) Alert(metric string) string {
	return fmt.Sprintf("%s/alerts/%s", t.root(), metric)
}

// DeviceState returns the retained state confirmation topic for a device.
//
// Example: home/state/light/living_room
func (t Topics) DeviceState(category, deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", t.root(), category, deviceID)
}

// Errors returns the topic rejected messages are reported on.
func (t Topics) Errors() string {
	return t.root() + "/errors"
}

// SystemStatus returns the retained online/offline status topic, also used as the LWT.
func (t Topics) SystemStatus() string {
	return t.root() + "/system/status"
}

// AllAlerts returns the wildcard for every alert.
func (t Topics) AllAlerts() string {
	return t.root() + "/alerts/#"
}
