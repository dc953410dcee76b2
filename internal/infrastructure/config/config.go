package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for homectl.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database   DatabaseConfig             `yaml:"database"`
	MQTT       MQTTConfig                 `yaml:"mqtt"`
	Topics     TopicsConfig               `yaml:"topics"`
	Controller ControllerConfig           `yaml:"controller"`
	Thresholds map[string]ThresholdConfig `yaml:"thresholds"`
	Devices    []DeviceConfig             `yaml:"devices"`
	Corrective CorrectiveConfig           `yaml:"corrective"`
	Simulator  SimulatorConfig            `yaml:"simulator"`
	API        APIConfig                  `yaml:"api"`
	WebSocket  WebSocketConfig            `yaml:"websocket"`
	InfluxDB   InfluxDBConfig             `yaml:"influxdb"`
	Logging    LoggingConfig              `yaml:"logging"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// TopicsConfig sets the root of the topic tree.
type TopicsConfig struct {
	Root string `yaml:"root"`
}

// ControllerConfig contains message handling policy.
type ControllerConfig struct {
	// PublishAcks publishes a retained state confirmation after every applied command.
	PublishAcks bool `yaml:"publish_acks"`

	// PublishRejections publishes rejected inbound messages to the errors topic.
	PublishRejections bool `yaml:"publish_rejections"`

	// AlertQoS is the QoS used for alert and ack publications.
	AlertQoS int `yaml:"alert_qos"`
}

// ThresholdConfig bounds a single metric. Either bound may be omitted.
type ThresholdConfig struct {
	Min           *float64 `yaml:"min"`
	Max           *float64 `yaml:"max"`
	CriticalDelta float64  `yaml:"critical_delta"`
}

// DeviceConfig preloads a device into the registry at startup.
type DeviceConfig struct {
	Category          string   `yaml:"category"`
	ID                string   `yaml:"id"`
	State             string   `yaml:"state"`
	TargetTemperature *float64 `yaml:"target_temperature"`
}

// CorrectiveConfig configures the automatic thermostat response to high temperature alerts.
// Without a fixed target_temperature the setpoint follows the reading:
// observed value minus offset, capped at ceiling.
type CorrectiveConfig struct {
	Enabled           bool     `yaml:"enabled"`
	ThermostatID      string   `yaml:"thermostat_id"`
	TargetTemperature *float64 `yaml:"target_temperature"`
	Offset            float64  `yaml:"offset"`
	Ceiling           float64  `yaml:"ceiling"`
}

// SimulatorConfig configures the simulated sensor collection loop.
type SimulatorConfig struct {
	Enabled  bool                    `yaml:"enabled"`
	Interval time.Duration           `yaml:"interval"`
	Timeout  time.Duration           `yaml:"timeout"`
	Sensors  []SimulatedSensorConfig `yaml:"sensors"`
}

// SimulatedSensorConfig describes one simulated sensor.
type SimulatedSensorConfig struct {
	ID     string  `yaml:"id"`
	Metric string  `yaml:"metric"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	Auth     APIAuthConfig    `yaml:"auth"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// APIAuthConfig enables bearer token validation on the API.
// An empty secret leaves the API open.
type APIAuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Known value sets used by Validate.
var (
	validMetrics    = map[string]bool{"temperature": true, "humidity": true, "moisture": true}
	validCategories = map[string]bool{"light": true, "thermostat": true, "lock": true}

	// validStates lists the states each device category accepts.
	validStates = map[string]map[string]bool{
		"light":      {"on": true, "off": true},
		"thermostat": {"on": true, "off": true},
		"lock":       {"locked": true, "unlocked": true},
	}
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. A .env file next to the working directory, if present
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: HOMECTL_SECTION_KEY
// For example: HOMECTL_DATABASE_PATH, HOMECTL_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads variables from a .env file without overriding the real environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// Default returns the built-in configuration.
// Used by tests and by commands that run without a config file.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	tempMax := 28.0
	moistureMin := 30.0
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/homectl.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "homectl",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Topics: TopicsConfig{
			Root: "home",
		},
		Controller: ControllerConfig{
			PublishAcks: true,
			AlertQoS:    1,
		},
		Thresholds: map[string]ThresholdConfig{
			"temperature": {Max: &tempMax},
			"moisture":    {Min: &moistureMin},
		},
		Corrective: CorrectiveConfig{
			ThermostatID: "living_room",
			Offset:       2,
			Ceiling:      22,
		},
		Simulator: SimulatorConfig{
			Interval: 10 * time.Second,
			Timeout:  5 * time.Second,
			Sensors: []SimulatedSensorConfig{
				{ID: "living_room", Metric: "temperature", Min: 20, Max: 28},
				{ID: "living_room", Metric: "humidity", Min: 40, Max: 70},
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("HOMECTL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("HOMECTL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HOMECTL_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("HOMECTL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HOMECTL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("HOMECTL_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("HOMECTL_API_JWT_SECRET"); v != "" {
		cfg.API.Auth.JWTSecret = v
	}

	// InfluxDB
	if v := os.Getenv("HOMECTL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("HOMECTL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.Controller.AlertQoS < 0 || c.Controller.AlertQoS > 2 {
		errs = append(errs, "controller.alert_qos must be 0, 1, or 2")
	}

	if c.Topics.Root == "" || strings.ContainsAny(c.Topics.Root, "+#") {
		errs = append(errs, "topics.root must be a non-empty topic without wildcards")
	}

	errs = append(errs, c.validateThresholds()...)
	errs = append(errs, c.validateDevices()...)

	if c.Corrective.Enabled {
		if c.Corrective.ThermostatID == "" {
			errs = append(errs, "corrective.thermostat_id is required when corrective is enabled")
		}
		if c.Corrective.Offset < 0 {
			errs = append(errs, "corrective.offset must not be negative")
		}
	}

	if c.Simulator.Enabled {
		if c.Simulator.Interval <= 0 {
			errs = append(errs, "simulator.interval must be positive")
		}
		for i, s := range c.Simulator.Sensors {
			if s.ID == "" {
				errs = append(errs, fmt.Sprintf("simulator.sensors[%d].id is required", i))
			}
			if !validMetrics[s.Metric] {
				errs = append(errs, fmt.Sprintf("simulator.sensors[%d].metric %q is not supported", i, s.Metric))
			}
			if s.Min > s.Max {
				errs = append(errs, fmt.Sprintf("simulator.sensors[%d]: min %.2f exceeds max %.2f", i, s.Min, s.Max))
			}
		}
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (c *Config) validateThresholds() []string {
	var errs []string
	for metric, t := range c.Thresholds {
		if !validMetrics[metric] {
			errs = append(errs, fmt.Sprintf("thresholds.%s: unknown metric", metric))
			continue
		}
		if t.Min != nil && t.Max != nil && *t.Min > *t.Max {
			errs = append(errs, fmt.Sprintf("thresholds.%s: min %.2f exceeds max %.2f", metric, *t.Min, *t.Max))
		}
		if t.CriticalDelta < 0 {
			errs = append(errs, fmt.Sprintf("thresholds.%s: critical_delta must not be negative", metric))
		}
	}
	return errs
}

func (c *Config) validateDevices() []string {
	var errs []string
	for i, d := range c.Devices {
		if !validCategories[d.Category] {
			errs = append(errs, fmt.Sprintf("devices[%d].category %q is not supported", i, d.Category))
			continue
		}
		if d.ID == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].id is required", i))
		}
		if d.State != "" && !validStates[d.Category][d.State] {
			errs = append(errs, fmt.Sprintf("devices[%d].state %q is not valid for %s", i, d.State, d.Category))
		}
		if d.TargetTemperature != nil {
			if d.Category != "thermostat" {
				errs = append(errs, fmt.Sprintf("devices[%d].target_temperature is only valid for thermostat", i))
			} else if t := *d.TargetTemperature; math.IsNaN(t) || math.IsInf(t, 0) {
				errs = append(errs, fmt.Sprintf("devices[%d].target_temperature must be finite", i))
			}
		}
	}
	return errs
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
