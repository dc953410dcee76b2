package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-home/internal/device"
	"github.com/nerrad567/gray-logic-home/internal/reading"
	"github.com/nerrad567/gray-logic-home/internal/threshold"
)

// Measurement names.
const (
	MeasurementReading     = "reading"
	MeasurementAlert       = "alert"
	MeasurementDeviceState = "device_state"
)

// WriteReading records a stored sensor reading at its own timestamp.
//
//	reading,metric=temperature,sensor_id=bedroom value=31.5,reading_id=42i
func (c *Client) WriteReading(r reading.Reading) {
	c.WritePointWithTime(MeasurementReading,
		map[string]string{
			"sensor_id": r.SensorID,
			"metric":    string(r.Metric),
		},
		map[string]interface{}{
			"value":      r.Value,
			"reading_id": r.ID,
		},
		r.Timestamp,
	)
}

// WriteAlert records a threshold breach.
func (c *Client) WriteAlert(a threshold.AlertEvent) {
	c.WritePointWithTime(MeasurementAlert,
		map[string]string{
			"sensor_id": a.SensorID,
			"metric":    string(a.Metric),
			"severity":  string(a.Severity),
			"kind":      string(a.Kind),
		},
		map[string]interface{}{
			"observed_value": a.ObservedValue,
			"threshold":      a.Threshold,
			"alert_id":       a.ID,
		},
		a.Timestamp,
	)
}

// WriteDeviceState records an applied device state. Binary states are
// written as 1 (on, locked) or 0 so they can be graphed.
func (c *Client) WriteDeviceState(d device.Device) {
	fields := map[string]interface{}{
		"state": string(d.State),
		"active": func() int {
			if d.State == device.StateOn || d.State == device.StateLocked {
				return 1
			}
			return 0
		}(),
	}
	if d.TargetTemperature != nil {
		fields["target_temperature"] = *d.TargetTemperature
	}

	c.WritePointWithTime(MeasurementDeviceState,
		map[string]string{
			"category":  string(d.Category),
			"device_id": d.ID,
		},
		fields,
		d.LastUpdated,
	)
}

// WritePointWithTime writes a custom point with a specific timestamp.
// A zero timestamp is replaced by the current time.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
