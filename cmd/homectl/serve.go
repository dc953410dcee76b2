package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-home/internal/api"
	"github.com/nerrad567/gray-logic-home/internal/controller"
	"github.com/nerrad567/gray-logic-home/internal/device"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-home/internal/reading"
	"github.com/nerrad567/gray-logic-home/internal/sensor"
	"github.com/nerrad567/gray-logic-home/internal/threshold"
	"github.com/nerrad567/gray-logic-home/migrations"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the controller until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *configPath)
		},
	}
}

// run wires every component, blocks until ctx is cancelled, then tears
// everything down in reverse order.
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting homectl",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database ready", "path", db.Path())

	registry := device.NewRegistry()
	registry.SetLogger(log.With("component", "registry"))
	history := device.NewSQLiteHistory(db.DB)
	if err := preloadDevices(ctx, registry, history, cfg.Devices); err != nil {
		return fmt.Errorf("preloading devices: %w", err)
	}
	log.Info("device registry initialised", "devices", registry.Count())

	store := reading.NewStore(db.DB)

	mqttClient, err := mqtt.Connect(cfg.MQTT, mqtt.Topics{Root: cfg.Topics.Root})
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
	mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// The controller is created before the publisher that reports back into it.
	var ctrl *controller.Controller
	publisher := mqtt.NewAsyncPublisher(mqttClient, func(topic string, err error) {
		ctrl.PublishFailed(topic, err)
	})
	ctrl = controller.New(controller.Config{
		Root:              cfg.Topics.Root,
		Thresholds:        threshold.FromConfig(cfg.Thresholds),
		PublishAcks:       cfg.Controller.PublishAcks,
		PublishRejections: cfg.Controller.PublishRejections,
		QoS:               byte(cfg.Controller.AlertQoS), //nolint:gosec // validated to 0..2
	}, registry, store, publisher, log.With("component", "controller"))
	ctrl.SetHistory(history)
	ctrl.SetOnError(func(err error) {
		log.Debug("controller status", "reason", controller.Reason(err), "error", err)
	})
	if cfg.Corrective.Enabled {
		ctrl.AddCorrectiveHook(controller.ThermostatHook(controller.ThermostatCorrection{
			ThermostatID: cfg.Corrective.ThermostatID,
			Target:       cfg.Corrective.TargetTemperature,
			Offset:       cfg.Corrective.Offset,
			Ceiling:      cfg.Corrective.Ceiling,
		}))
		log.Info("corrective thermostat hook enabled", "thermostat_id", cfg.Corrective.ThermostatID)
	}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		ctrl.SetMirror(influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// The hub must be attached before the first message arrives; the
	// listener starts only once subscriptions are in place.
	var srv *api.Server
	if cfg.API.Enabled {
		srv, err = newAPIServer(cfg, log, registry, store, history, ctrl, db, mqttClient)
		if err != nil {
			return err
		}
		ctrl.SetBroadcaster(srv.Hub())
	}

	qos := byte(cfg.MQTT.QoS) //nolint:gosec // validated to 0..2
	for _, filter := range ctrl.Subscriptions() {
		if err := mqttClient.Subscribe(filter, qos, ctrl.HandleMessage); err != nil {
			return fmt.Errorf("subscribing to %s: %w", filter, err)
		}
		log.Info("subscribed", "topic", filter)
	}

	if srv != nil {
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if cfg.Simulator.Enabled {
		sim, simErr := sensor.New(cfg.Simulator, cfg.Topics.Root, mqttClient, log.With("component", "simulator"))
		if simErr != nil {
			return fmt.Errorf("creating simulator: %w", simErr)
		}
		sim.Start(ctx)
		defer sim.Stop()
		log.Info("sensor simulator started", "sensors", len(sim.Sensors()), "interval", cfg.Simulator.Interval)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	stats := ctrl.Stats()
	log.Info("homectl stopped",
		"received", stats.Received,
		"commands_applied", stats.CommandsApplied,
		"readings_stored", stats.ReadingsStored,
		"alerts", stats.Alerts,
	)
	return nil
}

// openDatabase opens the SQLite file and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// preloadDevices seeds the registry from the devices section and records
// each seeded state with the config history source. Entries are checked
// against the same per-category rules as inbound commands.
func preloadDevices(ctx context.Context, registry *device.Registry, history device.HistoryRepository, devices []config.DeviceConfig) error {
	for _, dc := range devices {
		category := device.Category(dc.Category)
		p := device.Partial{TargetTemperature: dc.TargetTemperature}
		if dc.State != "" {
			s := device.StateValue(dc.State)
			p.State = &s
		}
		if p.State != nil || p.TargetTemperature != nil {
			cmd := device.Command{DeviceID: dc.ID, Category: category, TargetTemperature: dc.TargetTemperature}
			if p.State != nil {
				cmd.State = *p.State
			} else {
				cmd.State = device.DefaultState(category)
			}
			if err := device.ValidateCommand(cmd); err != nil {
				return fmt.Errorf("device %s/%s: %w", dc.Category, dc.ID, err)
			}
		}
		d, err := registry.Upsert(category, dc.ID, p)
		if err != nil {
			return fmt.Errorf("device %s/%s: %w", dc.Category, dc.ID, err)
		}
		if err := history.Record(ctx, d, device.HistorySourceConfig); err != nil {
			return fmt.Errorf("recording device %s/%s: %w", dc.Category, dc.ID, err)
		}
	}
	return nil
}

func newAPIServer(
	cfg *config.Config,
	log *logging.Logger,
	registry *device.Registry,
	store *reading.Store,
	history device.HistoryRepository,
	ctrl *controller.Controller,
	db *database.DB,
	mqttClient *mqtt.Client,
) (*api.Server, error) {
	srv, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log.With("component", "api"),
		Registry: registry,
		Readings: store,
		History:  history,
		Stats:    ctrl,
		DB:       db,
		Health: map[string]api.HealthChecker{
			"database": db,
			"mqtt":     mqttClient,
		},
		Version: version,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	return srv, nil
}

// healthCheck verifies every connected component once at startup.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
