package reading

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultRoot is the topic root used when none is configured.
const DefaultRoot = "home"

// naiveTimestampLayout matches ISO-8601 timestamps without a zone,
// as sent by publishers that use local wall-clock strings. Treated as UTC.
const naiveTimestampLayout = "2006-01-02T15:04:05.999999999"

// Decoder turns {root}/sensors/{metric}/{sensor_id} messages into Readings.
type Decoder struct {
	prefix string
	now    func() time.Time
}

// NewDecoder creates a decoder for sensor topics under root.
// A nil clock defaults to time.Now.
func NewDecoder(root string, now func() time.Time) *Decoder {
	if root == "" {
		root = DefaultRoot
	}
	if now == nil {
		now = time.Now
	}
	return &Decoder{prefix: root + "/sensors/", now: now}
}

// Prefix returns the topic prefix this decoder accepts.
func (d *Decoder) Prefix() string {
	return d.prefix
}

// Topic builds the sensor topic for a metric and sensor id.
func (d *Decoder) Topic(metric Metric, sensorID string) string {
	return d.prefix + string(metric) + "/" + sensorID
}

// sensorPayload mirrors the wire format {value: number, timestamp?: string}.
type sensorPayload struct {
	Value     *json.RawMessage `json:"value"`
	Timestamp *json.RawMessage `json:"timestamp"`
}

// Decode parses topic and payload. It never returns a partially filled
// Reading together with a nil error; failures are *DecodeError.
func (d *Decoder) Decode(topic string, payload []byte) (Reading, error) {
	rest, ok := strings.CutPrefix(topic, d.prefix)
	if !ok {
		return Reading{}, &DecodeError{Reason: ReasonInvalidTopic, Topic: topic}
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] == "" {
		return Reading{}, &DecodeError{Reason: ReasonInvalidTopic, Topic: topic}
	}
	metric := Metric(parts[0])
	if !metric.Valid() {
		return Reading{}, &DecodeError{Reason: ReasonUnknownMetric, Topic: topic, Field: parts[0]}
	}

	var p sensorPayload
	if err := unmarshalObject(payload, &p); err != nil {
		return Reading{}, &DecodeError{Reason: ReasonMalformedPayload, Topic: topic, Err: err}
	}

	if p.Value == nil || isNull(*p.Value) {
		return Reading{}, &DecodeError{Reason: ReasonMissingField, Topic: topic, Field: "value"}
	}
	var value float64
	if err := json.Unmarshal(*p.Value, &value); err != nil {
		return Reading{}, &DecodeError{Reason: ReasonMalformedPayload, Topic: topic, Field: "value", Err: err}
	}

	ts := d.now()
	if p.Timestamp != nil && !isNull(*p.Timestamp) {
		var raw string
		if err := json.Unmarshal(*p.Timestamp, &raw); err != nil {
			return Reading{}, &DecodeError{Reason: ReasonMalformedPayload, Topic: topic, Field: "timestamp", Err: err}
		}
		parsed, err := ParseTimestamp(raw)
		if err != nil {
			return Reading{}, &DecodeError{Reason: ReasonMalformedPayload, Topic: topic, Field: "timestamp", Err: err}
		}
		ts = parsed
	}

	return Reading{
		SensorID:  parts[1],
		Metric:    metric,
		Value:     value,
		Timestamp: ts,
	}, nil
}

// ParseTimestamp accepts RFC 3339 or a zone-less ISO-8601 timestamp (read as UTC).
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(naiveTimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
	}
	return t, nil
}

// unmarshalObject requires payload to be a JSON object.
func unmarshalObject(payload []byte, v any) error {
	trimmed := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(trimmed, "{") {
		return errors.New("payload is not a JSON object")
	}
	return json.Unmarshal(payload, v)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
