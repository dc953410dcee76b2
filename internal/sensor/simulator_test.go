package sensor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-home/internal/reading"
)

type mockPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	failOn   string
}

func (m *mockPublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if topic == m.failOn {
		return errors.New("not connected")
	}
	m.topics = append(m.topics, topic)
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topics)
}

func testSimulatorConfig() config.SimulatorConfig {
	return config.SimulatorConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
		Sensors: []config.SimulatedSensorConfig{
			{ID: "living_room", Metric: "temperature", Min: 20, Max: 28},
			{ID: "living_room", Metric: "humidity", Min: 40, Max: 70},
			{ID: "bed_1", Metric: "moisture", Min: 20, Max: 60},
		},
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.SimulatorConfig)
		wantErr error
	}{
		{"no sensors", func(c *config.SimulatorConfig) { c.Sensors = nil }, ErrNoSensors},
		{"unknown metric", func(c *config.SimulatorConfig) { c.Sensors[0].Metric = "pressure" }, reading.ErrUnknownMetric},
		{"inverted range", func(c *config.SimulatorConfig) { c.Sensors[1].Min, c.Sensors[1].Max = 70, 40 }, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSimulatorConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg, "home", &mockPublisher{}, nil); !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg := testSimulatorConfig()
	cfg.Interval = 0
	cfg.Timeout = 0

	s, err := New(cfg, "home", &mockPublisher{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.interval != DefaultInterval || s.timeout != DefaultTimeout {
		t.Errorf("interval = %v, timeout = %v", s.interval, s.timeout)
	}
	if len(s.Sensors()) != 3 {
		t.Errorf("Sensors() len = %d", len(s.Sensors()))
	}
}

func TestTick_PublishesDecodableReadings(t *testing.T) {
	pub := &mockPublisher{}
	s, err := New(testSimulatorConfig(), "home", pub, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Seed(7)

	dec := reading.NewDecoder("home", nil)
	for round := 0; round < 50; round++ {
		n, err := s.Tick(context.Background())
		if err != nil || n != 3 {
			t.Fatalf("Tick() = %d, %v", n, err)
		}
	}

	bounds := map[reading.Metric][2]float64{
		reading.MetricTemperature: {20, 28},
		reading.MetricHumidity:    {40, 70},
		reading.MetricMoisture:    {20, 60},
	}
	for i, topic := range pub.topics {
		r, err := dec.Decode(topic, pub.payloads[i])
		if err != nil {
			t.Fatalf("Decode(%s, %s) error = %v", topic, pub.payloads[i], err)
		}
		b := bounds[r.Metric]
		if r.Value < b[0] || r.Value > b[1] {
			t.Errorf("%s value %v outside [%v, %v]", r.Metric, r.Value, b[0], b[1])
		}
	}

	wantTopics := []string{
		"home/sensors/temperature/living_room",
		"home/sensors/humidity/living_room",
		"home/sensors/moisture/bed_1",
	}
	for i, want := range wantTopics {
		if pub.topics[i] != want {
			t.Errorf("topic[%d] = %q, want %q", i, pub.topics[i], want)
		}
	}
}

func TestTick_SeedIsReproducible(t *testing.T) {
	run := func() []string {
		pub := &mockPublisher{}
		s, err := New(testSimulatorConfig(), "home", pub, nil)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		s.Seed(42)
		s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
		if _, err := s.Tick(context.Background()); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
		out := make([]string, len(pub.payloads))
		for i, p := range pub.payloads {
			out[i] = string(p)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("payload %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestTick_PublishFailureContinues(t *testing.T) {
	pub := &mockPublisher{failOn: "home/sensors/humidity/living_room"}
	s, err := New(testSimulatorConfig(), "home", pub, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	n, err := s.Tick(context.Background())
	if err == nil {
		t.Fatal("Tick() expected error")
	}
	if n != 2 || pub.count() != 2 {
		t.Errorf("published = %d (%d recorded), want 2", n, pub.count())
	}
}

func TestTick_CancelledContext(t *testing.T) {
	pub := &mockPublisher{}
	s, err := New(testSimulatorConfig(), "home", pub, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := s.Tick(ctx)
	if !errors.Is(err, context.Canceled) || n != 0 {
		t.Errorf("Tick() = %d, %v, want 0 and context.Canceled", n, err)
	}
}

func TestStartStop(t *testing.T) {
	pub := &mockPublisher{}
	s, err := New(testSimulatorConfig(), "home", pub, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for pub.count() < 9 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	s.Stop()

	if pub.count() < 9 {
		t.Fatalf("published %d readings, want at least 3 ticks", pub.count())
	}
	after := pub.count()
	time.Sleep(30 * time.Millisecond)
	if pub.count() != after {
		t.Error("simulator kept publishing after Stop()")
	}
}
