package threshold

import (
	"time"

	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-home/internal/reading"
)

// Severity grades an alert.
type Severity string

// Severity constants.
const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Kind says which bound was crossed.
type Kind string

// Kind constants.
const (
	KindHigh Kind = "high"
	KindLow  Kind = "low"
)

// Bounds limits one metric. A nil bound is not checked.
type Bounds struct {
	Min *float64
	Max *float64

	// CriticalDelta, when positive, upgrades an alert to critical once the
	// value is at least this far past the bound.
	CriticalDelta float64
}

// Thresholds maps each metric to its bounds. Metrics without an entry never alert.
type Thresholds map[reading.Metric]Bounds

// FromConfig converts the thresholds section of the configuration.
// Entries for unknown metrics are skipped; Validate rejects them earlier.
func FromConfig(cfg map[string]config.ThresholdConfig) Thresholds {
	t := make(Thresholds, len(cfg))
	for name, c := range cfg {
		m := reading.Metric(name)
		if !m.Valid() {
			continue
		}
		t[m] = Bounds{Min: c.Min, Max: c.Max, CriticalDelta: c.CriticalDelta}
	}
	return t
}

// AlertEvent describes one threshold breach.
type AlertEvent struct {
	ID            string         `json:"id"`
	SensorID      string         `json:"sensor_id"`
	Metric        reading.Metric `json:"metric"`
	ObservedValue float64        `json:"observed_value"`
	Threshold     float64        `json:"threshold"`
	Severity      Severity       `json:"severity"`
	Kind          Kind           `json:"kind"`

	// AlertType combines kind and metric, e.g. "high_temperature".
	AlertType string    `json:"alert_type"`
	Timestamp time.Time `json:"timestamp"`
}
