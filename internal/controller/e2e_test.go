package controller

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-home/internal/device"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-home/internal/reading"
	"github.com/nerrad567/gray-logic-home/internal/threshold"
	"github.com/nerrad567/gray-logic-home/migrations"
)

type pipeline struct {
	ctrl     *Controller
	registry *device.Registry
	store    *reading.Store
	pub      *mockPublisher
}

func newPipeline(t *testing.T, thresholds threshold.Thresholds) *pipeline {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "home.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	require.NoError(t, db.Migrate(context.Background(), migrations.FS))

	p := &pipeline{
		registry: device.NewRegistry(),
		store:    reading.NewStore(db.DB),
		pub:      &mockPublisher{},
	}
	p.ctrl = New(Config{Thresholds: thresholds, PublishAcks: true, QoS: 1}, p.registry, p.store, p.pub, nil)
	p.ctrl.SetHistory(device.NewSQLiteHistory(db.DB))
	return p
}

func TestEndToEnd_LightCommand(t *testing.T) {
	p := newPipeline(t, nil)

	require.NoError(t, p.ctrl.HandleMessage("home/devices/lights/living_room", []byte(`{"state":"on"}`)))

	d, err := p.registry.Get(device.CategoryLight, "living_room")
	require.NoError(t, err)
	assert.Equal(t, device.StateOn, d.State)
	assert.Len(t, p.pub.byPrefix("home/state/light/living_room"), 1)
}

func TestEndToEnd_TemperatureAlert(t *testing.T) {
	p := newPipeline(t, threshold.Thresholds{
		reading.MetricTemperature: {Max: ptr(30.0)},
	})

	require.NoError(t, p.ctrl.HandleMessage("home/sensors/temperature/bedroom", []byte(`{"value": 31.5}`)))

	alerts := p.pub.byPrefix("home/alerts/")
	require.Len(t, alerts, 1)
	assert.Equal(t, "home/alerts/temperature", alerts[0].topic)

	var ev threshold.AlertEvent
	require.NoError(t, json.Unmarshal(alerts[0].payload, &ev))
	assert.Equal(t, 31.5, ev.ObservedValue)
	assert.Equal(t, 30.0, ev.Threshold)
	assert.Equal(t, "bedroom", ev.SensorID)
	assert.Equal(t, threshold.SeverityWarning, ev.Severity)

	recent, err := p.store.Recent(context.Background(), "bedroom", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 31.5, recent[0].Value)
}

func TestEndToEnd_MalformedCommandIsIsolated(t *testing.T) {
	p := newPipeline(t, threshold.Thresholds{
		reading.MetricTemperature: {Max: ptr(30.0)},
	})

	require.NoError(t, p.ctrl.HandleMessage("home/devices/lights/hall", []byte{0xde, 0xad, 0xbe, 0xef}))

	assert.Equal(t, 0, p.registry.Count())
	assert.Empty(t, p.pub.byPrefix("home/alerts/"))
	assert.Empty(t, p.pub.byPrefix("home/state/"))

	// The next message is processed normally.
	require.NoError(t, p.ctrl.HandleMessage("home/devices/lights/hall", []byte(`{"state":"on"}`)))
	d, err := p.registry.Get(device.CategoryLight, "hall")
	require.NoError(t, err)
	assert.Equal(t, device.StateOn, d.State)

	s := p.ctrl.Stats()
	assert.EqualValues(t, 1, s.CommandsRejected)
	assert.EqualValues(t, 1, s.CommandsApplied)
}

func TestEndToEnd_StateHistoryRecorded(t *testing.T) {
	p := newPipeline(t, nil)
	hist := p.ctrl.history.(*device.SQLiteHistory)

	for _, state := range []string{"on", "off", "on"} {
		require.NoError(t, p.ctrl.HandleMessage("home/devices/thermostat/hall", []byte(`{"state":"`+state+`"}`)))
	}

	entries, err := hist.History(context.Background(), device.CategoryThermostat, "hall", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, device.StateOn, entries[0].State)
	assert.Equal(t, device.StateOff, entries[1].State)
}
