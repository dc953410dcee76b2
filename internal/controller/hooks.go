package controller

import (
	"context"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-home/internal/device"
	"github.com/nerrad567/gray-logic-home/internal/reading"
	"github.com/nerrad567/gray-logic-home/internal/threshold"
)

// CorrectiveHook reacts to an alert with commands for the registry.
// Returned commands are validated and applied like inbound ones, recorded
// with the corrective history source, and confirmed on the state topic.
// Hooks run synchronously inside Process and must not block.
type CorrectiveHook func(ctx context.Context, alert threshold.AlertEvent) []device.Command

// Thermostat correction defaults.
const (
	DefaultCorrectionOffset  = 2.0
	DefaultCorrectionCeiling = 22.0
)

// ThermostatCorrection configures ThermostatHook.
type ThermostatCorrection struct {
	ThermostatID string

	// Target, when set, is applied as-is.
	Target *float64

	// Without a Target the setpoint becomes the observed value minus
	// Offset, capped at Ceiling.
	Offset  float64
	Ceiling float64
}

// ThermostatHook switches a thermostat on when any temperature sensor
// reports a high breach and sets its target temperature.
func ThermostatHook(c ThermostatCorrection) CorrectiveHook {
	return func(_ context.Context, alert threshold.AlertEvent) []device.Command {
		if alert.Metric != reading.MetricTemperature || alert.Kind != threshold.KindHigh {
			return nil
		}

		target := min(alert.ObservedValue-c.Offset, c.Ceiling)
		if c.Target != nil {
			target = *c.Target
		}

		return []device.Command{{
			ID:                uuid.NewString(),
			DeviceID:          c.ThermostatID,
			Category:          device.CategoryThermostat,
			State:             device.StateOn,
			TargetTemperature: &target,
		}}
	}
}
