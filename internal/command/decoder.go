package command

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-home/internal/device"
)

// DefaultRoot is the topic root used when none is configured.
const DefaultRoot = "home"

// DefaultDeviceID is the device targeted by a topic without an id segment,
// e.g. home/devices/lights.
const DefaultDeviceID = "default"

// Decoder turns {root}/devices/{category}[/{device_id}] messages into Commands.
type Decoder struct {
	prefix string
	newID  func() string
}

// NewDecoder creates a decoder for device topics under root.
func NewDecoder(root string) *Decoder {
	if root == "" {
		root = DefaultRoot
	}
	return &Decoder{prefix: root + "/devices/", newID: uuid.NewString}
}

// Prefix returns the topic prefix this decoder accepts.
func (d *Decoder) Prefix() string {
	return d.prefix
}

// Topic builds the command topic for a device.
func (d *Decoder) Topic(category device.Category, id string) string {
	return d.prefix + category.TopicSegment() + "/" + id
}

type commandPayload struct {
	State       *json.RawMessage `json:"state"`
	Temperature *json.RawMessage `json:"temperature"`
}

// Decode parses topic and payload into a Command with a fresh id.
// Failures are *DecodeError.
func (d *Decoder) Decode(topic string, payload []byte) (device.Command, error) {
	rest, ok := strings.CutPrefix(topic, d.prefix)
	if !ok || rest == "" {
		return device.Command{}, &DecodeError{Reason: ReasonInvalidTopic, Topic: topic}
	}

	parts := strings.Split(rest, "/")
	var segment, id string
	switch len(parts) {
	case 1:
		segment, id = parts[0], DefaultDeviceID
	case 2:
		segment, id = parts[0], parts[1]
	default:
		return device.Command{}, &DecodeError{Reason: ReasonInvalidTopic, Topic: topic}
	}
	if id == "" {
		return device.Command{}, &DecodeError{Reason: ReasonInvalidTopic, Topic: topic}
	}

	category, ok := device.CategoryFromTopicSegment(segment)
	if !ok {
		return device.Command{}, &DecodeError{Reason: ReasonUnknownCategory, Topic: topic, Field: segment}
	}

	var p commandPayload
	if err := unmarshalObject(payload, &p); err != nil {
		return device.Command{}, &DecodeError{Reason: ReasonMalformedPayload, Topic: topic, Err: err}
	}

	if p.State == nil || isNull(*p.State) {
		return device.Command{}, &DecodeError{Reason: ReasonMissingField, Topic: topic, Field: "state"}
	}
	var state string
	if err := json.Unmarshal(*p.State, &state); err != nil {
		return device.Command{}, &DecodeError{Reason: ReasonMalformedPayload, Topic: topic, Field: "state", Err: err}
	}
	if state == "" {
		return device.Command{}, &DecodeError{Reason: ReasonMissingField, Topic: topic, Field: "state"}
	}

	cmd := device.Command{
		ID:       d.newID(),
		DeviceID: id,
		Category: category,
		State:    device.StateValue(state),
	}

	if p.Temperature != nil && !isNull(*p.Temperature) {
		var t float64
		if err := json.Unmarshal(*p.Temperature, &t); err != nil {
			return device.Command{}, &DecodeError{Reason: ReasonMalformedPayload, Topic: topic, Field: "temperature", Err: err}
		}
		cmd.TargetTemperature = &t
	}

	return cmd, nil
}

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
