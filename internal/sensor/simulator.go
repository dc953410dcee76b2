package sensor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-home/internal/reading"
)

// Defaults applied when the configuration leaves them unset.
const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 5 * time.Second
)

var (
	// ErrNoSensors is returned by New when no sensors are configured.
	ErrNoSensors = errors.New("sensor: no sensors configured")

	// ErrInvalidRange is returned by New when a sensor's min exceeds its max.
	ErrInvalidRange = errors.New("sensor: min exceeds max")
)

// Publisher sends simulated readings. Typically the MQTT client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by the simulator.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Sensor is one simulated sensor.
type Sensor struct {
	ID     string
	Metric reading.Metric
	Min    float64
	Max    float64
}

// payload is the wire format a real sensor sends.
type payload struct {
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}

// Simulator periodically publishes readings for a fixed set of sensors.
type Simulator struct {
	sensors   []Sensor
	decoder   *reading.Decoder
	publisher Publisher
	interval  time.Duration
	timeout   time.Duration
	qos       byte
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// New creates a simulator from the simulator section of the configuration.
// Sensors with an unknown metric are rejected.
func New(cfg config.SimulatorConfig, root string, publisher Publisher, logger Logger) (*Simulator, error) {
	if len(cfg.Sensors) == 0 {
		return nil, ErrNoSensors
	}

	sensors := make([]Sensor, 0, len(cfg.Sensors))
	for _, sc := range cfg.Sensors {
		m := reading.Metric(sc.Metric)
		if !m.Valid() {
			return nil, fmt.Errorf("sensor %q: %w: %q", sc.ID, reading.ErrUnknownMetric, sc.Metric)
		}
		if sc.Min > sc.Max {
			return nil, fmt.Errorf("sensor %q: %w: %g > %g", sc.ID, ErrInvalidRange, sc.Min, sc.Max)
		}
		sensors = append(sensors, Sensor{ID: sc.ID, Metric: m, Min: sc.Min, Max: sc.Max})
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = noopLogger{}
	}

	return &Simulator{
		sensors:   sensors,
		decoder:   reading.NewDecoder(root, nil),
		publisher: publisher,
		interval:  interval,
		timeout:   timeout,
		qos:       1,
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // simulated values, not security sensitive
		done:      make(chan struct{}),
		logger:    logger,
	}, nil
}

// Seed makes the generated values reproducible.
func (s *Simulator) Seed(seed uint64) {
	s.rngMu.Lock()
	s.rng = rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // simulated values, not security sensitive
	s.rngMu.Unlock()
}

// Start runs the publish loop in the background until ctx is cancelled or
// Stop is called. The first tick happens immediately.
func (s *Simulator) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop ends the publish loop and waits for it. Safe to call more than once.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

func (s *Simulator) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tickAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.tickAndLog(ctx)
		}
	}
}

func (s *Simulator) tickAndLog(ctx context.Context) {
	n, err := s.Tick(ctx)
	if err != nil {
		s.logger.Warn("simulated readings not fully published", "published", n, "error", err)
		return
	}
	s.logger.Debug("simulated readings published", "count", n)
}

// Tick publishes one reading per sensor and returns how many were accepted.
// The whole tick is bounded by the simulator timeout; sensors not reached
// before it expires are skipped.
func (s *Simulator) Tick(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		published int
		errs      []error
	)
	for _, sensor := range s.sensors {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("tick aborted before %s: %w", sensor.ID, err))
			break
		}

		body, err := json.Marshal(payload{
			Value:     s.sample(sensor),
			Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}

		topic := s.decoder.Topic(sensor.Metric, sensor.ID)
		if err := s.publisher.Publish(topic, body, s.qos, false); err != nil {
			errs = append(errs, fmt.Errorf("publishing %s: %w", topic, err))
			continue
		}
		published++
	}
	return published, errors.Join(errs...)
}

// sample draws a uniform value in [Min, Max], rounded to 0.1.
func (s *Simulator) sample(sensor Sensor) float64 {
	s.rngMu.Lock()
	u := s.rng.Float64()
	s.rngMu.Unlock()

	v := sensor.Min + u*(sensor.Max-sensor.Min)
	return math.Round(v*10) / 10
}

// Sensors returns the configured sensors.
func (s *Simulator) Sensors() []Sensor {
	out := make([]Sensor, len(s.sensors))
	copy(out, s.sensors)
	return out
}
