// Package device provides the Device Registry for homectl.
//
// The registry is the in-memory catalogue of actuators (lights, thermostats
// and locks). Devices are keyed by (category, id), created on first command
// or when preloaded from configuration, and never deleted while the process
// runs.
//
// # Key Types
//
//   - Device: current state of one actuator
//   - Command: a decoded request to change a device
//   - CommandError: a command whose fields are illegal for its category
//   - SQLiteHistory: optional audit trail of applied states
//
// # Usage
//
//	reg := device.NewRegistry()
//	reg.SetLogger(logger)
//
//	d, err := reg.ApplyCommand(device.Command{
//	    DeviceID: "living_room",
//	    Category: device.CategoryLight,
//	    State:    device.StateOn,
//	})
//	var cmdErr *device.CommandError
//	if errors.As(err, &cmdErr) {
//	    // rejected, state unchanged
//	}
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use.
package device
