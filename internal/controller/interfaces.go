package controller

import (
	"context"

	"github.com/nerrad567/gray-logic-home/internal/device"
	"github.com/nerrad567/gray-logic-home/internal/reading"
	"github.com/nerrad567/gray-logic-home/internal/threshold"
)

// Logger defines the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher sends outbound messages. The MQTT client's AsyncPublisher
// satisfies it without waiting for broker acknowledgement.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// DeviceRegistry is the part of device.Registry the controller mutates.
type DeviceRegistry interface {
	ApplyCommand(cmd device.Command) (device.Device, error)
}

// ReadingStore is the part of reading.Store the controller appends to.
type ReadingStore interface {
	Append(ctx context.Context, r reading.Reading) (reading.Reading, error)
}

// HistoryRecorder persists applied device states.
type HistoryRecorder interface {
	Record(ctx context.Context, d device.Device, source string) error
}

// Mirror receives copies of stored readings, alerts and device states for
// an external time-series database. Writes must not block.
type Mirror interface {
	WriteReading(r reading.Reading)
	WriteAlert(a threshold.AlertEvent)
	WriteDeviceState(d device.Device)
}

// Broadcaster pushes live events to connected clients.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Broadcast channels.
const (
	ChannelAlerts  = "alerts"
	ChannelDevices = "devices"
)
