package threshold

import (
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-home/internal/reading"
)

// Evaluate returns zero or one AlertEvent for r.
//
// A value above Max is a high breach; a value below Min is a low breach.
// If a misconfigured range has Min > Max, the high check wins.
// The event carries the reading's timestamp.
func Evaluate(r reading.Reading, t Thresholds) []AlertEvent {
	b, ok := t[r.Metric]
	if !ok {
		return nil
	}

	var (
		kind  Kind
		limit float64
	)
	switch {
	case b.Max != nil && r.Value > *b.Max:
		kind, limit = KindHigh, *b.Max
	case b.Min != nil && r.Value < *b.Min:
		kind, limit = KindLow, *b.Min
	default:
		return nil
	}

	return []AlertEvent{{
		ID:            uuid.NewString(),
		SensorID:      r.SensorID,
		Metric:        r.Metric,
		ObservedValue: r.Value,
		Threshold:     limit,
		Severity:      severity(r.Value, limit, b.CriticalDelta),
		Kind:          kind,
		AlertType:     string(kind) + "_" + string(r.Metric),
		Timestamp:     r.Timestamp,
	}}
}

func severity(value, limit, criticalDelta float64) Severity {
	if criticalDelta <= 0 {
		return SeverityWarning
	}
	distance := value - limit
	if distance < 0 {
		distance = -distance
	}
	if distance >= criticalDelta {
		return SeverityCritical
	}
	return SeverityWarning
}
