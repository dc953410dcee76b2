package reading

import (
	"slices"
	"time"
)

// Metric is the quantity a sensor observes.
type Metric string

// Metric constants.
const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricMoisture    Metric = "moisture"
)

// AllMetrics returns all supported metrics.
func AllMetrics() []Metric {
	return []Metric{MetricTemperature, MetricHumidity, MetricMoisture}
}

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	return slices.Contains(AllMetrics(), m)
}

// Reading is one sensor observation. Once appended it is never changed.
type Reading struct {
	// ID is assigned by the store and increases with insertion order.
	ID        int64     `json:"id"`
	SensorID  string    `json:"sensor_id"`
	Metric    Metric    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
