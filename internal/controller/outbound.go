package controller

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/command"
	"github.com/nerrad567/gray-logic-home/internal/device"
	"github.com/nerrad567/gray-logic-home/internal/reading"
	"github.com/nerrad567/gray-logic-home/internal/threshold"
)

// Message is one outbound publication produced by Process.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// StateAck is the payload published on {root}/state/{category}/{id}.
type StateAck struct {
	CommandID         string            `json:"command_id,omitempty"`
	DeviceID          string            `json:"device_id"`
	Category          device.Category   `json:"category"`
	State             device.StateValue `json:"state"`
	TargetTemperature *float64          `json:"target_temperature,omitempty"`
	Source            string            `json:"source"`
	LastUpdated       time.Time         `json:"last_updated"`
}

// Rejection is the payload published on {root}/errors.
type Rejection struct {
	Topic     string    `json:"topic"`
	Reason    string    `json:"reason"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// topics builds outbound topic names under one root.
type topics struct {
	root string
}

func (t topics) alert(m reading.Metric) string {
	return t.root + "/alerts/" + string(m)
}

func (t topics) state(c device.Category, id string) string {
	return t.root + "/state/" + string(c) + "/" + id
}

func (t topics) rejections() string {
	return t.root + "/errors"
}

func alertMessage(t topics, a threshold.AlertEvent, qos byte) (Message, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: t.alert(a.Metric), Payload: payload, QoS: qos}, nil
}

func stateMessage(t topics, d device.Device, commandID, source string, qos byte) (Message, error) {
	payload, err := json.Marshal(StateAck{
		CommandID:         commandID,
		DeviceID:          d.ID,
		Category:          d.Category,
		State:             d.State,
		TargetTemperature: d.TargetTemperature,
		Source:            source,
		LastUpdated:       d.LastUpdated,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: t.state(d.Category, d.ID), Payload: payload, QoS: qos, Retained: true}, nil
}

func rejectionMessage(t topics, topic string, err error, now time.Time) (Message, error) {
	payload, mErr := json.Marshal(Rejection{
		Topic:     topic,
		Reason:    Reason(err),
		Error:     err.Error(),
		Timestamp: now.UTC(),
	})
	if mErr != nil {
		return Message{}, mErr
	}
	return Message{Topic: t.rejections(), Payload: payload}, nil
}

// Reason returns the machine-readable reason carried by err,
// or "unknown" for errors outside the core taxonomy.
func Reason(err error) string {
	var (
		cmdDecode  *command.DecodeError
		readDecode *reading.DecodeError
		cmdErr     *device.CommandError
		storeErr   *reading.StoreError
		pubErr     *PublishError
	)
	switch {
	case errors.As(err, &cmdDecode):
		return cmdDecode.Reason
	case errors.As(err, &readDecode):
		return readDecode.Reason
	case errors.As(err, &cmdErr):
		return cmdErr.Reason
	case errors.As(err, &storeErr):
		return reading.ReasonIOFailure
	case errors.As(err, &pubErr):
		return ReasonTransportFailure
	case errors.Is(err, ErrUnroutable):
		return ReasonUnroutable
	case errors.Is(err, device.ErrUnknownCategory):
		return command.ReasonUnknownCategory
	case errors.Is(err, device.ErrInvalidDeviceID):
		return command.ReasonInvalidTopic
	default:
		return "unknown"
	}
}
