package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/command"
	"github.com/nerrad567/gray-logic-home/internal/device"
	"github.com/nerrad567/gray-logic-home/internal/reading"
	"github.com/nerrad567/gray-logic-home/internal/threshold"
)

// handleTimeout bounds the store and history writes of one inbound message.
const handleTimeout = 10 * time.Second

// Kind classifies an inbound message by its topic.
type Kind string

// Kind constants.
const (
	KindCommand  Kind = "command"
	KindReading  Kind = "reading"
	KindUnrouted Kind = "unrouted"
)

// Status is the terminal state of one processed message.
type Status string

// Status constants.
const (
	StatusAcknowledged Status = "acknowledged"
	StatusRejected     Status = "rejected"
)

// Config holds the controller's routing and publishing policy.
type Config struct {
	// Root is the topic root, "home" when empty.
	Root string

	Thresholds threshold.Thresholds

	// PublishAcks publishes a retained state confirmation for every applied command.
	PublishAcks bool

	// PublishRejections publishes rejected messages to {root}/errors.
	PublishRejections bool

	// QoS is used for alerts and acknowledgements.
	QoS byte
}

// Result describes what Process did with one message.
type Result struct {
	Kind   Kind
	Status Status

	// Err is set when Status is StatusRejected.
	Err error

	// Device is the updated device for an applied command.
	Device *device.Device

	// Reading is the stored reading, with its id.
	Reading *reading.Reading

	Alerts []threshold.AlertEvent

	// Corrections are devices changed by corrective hooks.
	Corrections []device.Device

	// Outbound lists the messages to publish, in order.
	Outbound []Message
}

// Controller is the message router of the home automation core.
type Controller struct {
	cfg      Config
	topics   topics
	commands *command.Decoder
	readings *reading.Decoder

	devices   DeviceRegistry
	store     ReadingStore
	publisher Publisher
	logger    Logger

	history     HistoryRecorder
	mirror      Mirror
	broadcaster Broadcaster
	hooks       []CorrectiveHook

	mu      sync.RWMutex
	onError func(error)

	now   func() time.Time
	stats counters
}

// New creates a controller.
//
// Parameters:
//   - cfg: Routing and publishing policy
//   - devices: Device registry receiving validated commands
//   - store: Reading store receiving decoded readings
//   - publisher: Outbound transport (may be nil for Process-only use)
//   - logger: Logger instance (may be nil)
func New(cfg Config, devices DeviceRegistry, store ReadingStore, publisher Publisher, logger Logger) *Controller {
	if cfg.Root == "" {
		cfg.Root = command.DefaultRoot
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		cfg:       cfg,
		topics:    topics{root: cfg.Root},
		commands:  command.NewDecoder(cfg.Root),
		readings:  reading.NewDecoder(cfg.Root, nil),
		devices:   devices,
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SetHistory sets where applied device states are recorded.
// Must be called before the first message.
func (c *Controller) SetHistory(h HistoryRecorder) {
	c.history = h
}

// SetMirror sets the time-series mirror. Must be called before the first message.
func (c *Controller) SetMirror(m Mirror) {
	c.mirror = m
}

// SetBroadcaster sets the live event sink. Must be called before the first message.
func (c *Controller) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

// AddCorrectiveHook registers a hook run for every alert.
// Must be called before the first message.
func (c *Controller) AddCorrectiveHook(h CorrectiveHook) {
	c.hooks = append(c.hooks, h)
}

// SetOnError registers a callback for store and publish failures.
func (c *Controller) SetOnError(fn func(error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// Stats returns a snapshot of the message counters.
func (c *Controller) Stats() Stats {
	return c.stats.snapshot()
}

// Subscriptions returns the topic filters the controller consumes.
func (c *Controller) Subscriptions() []string {
	return []string{c.commands.Prefix() + "#", c.readings.Prefix() + "#"}
}

// HandleMessage processes one inbound message and publishes its outbound
// messages. It matches the MQTT MessageHandler signature and always returns
// nil: rejections and publish failures are logged and counted here.
func (c *Controller) HandleMessage(topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	res := c.Process(ctx, topic, payload)
	if res.Status == StatusRejected {
		c.logger.Debug("message rejected",
			"topic", topic,
			"kind", res.Kind,
			"reason", Reason(res.Err),
			"error", res.Err,
		)
	}

	c.publish(res.Outbound)
	return nil
}

// PublishFailed reports an outbound message the transport gave up on,
// such as an asynchronous publish whose token completed with an error.
func (c *Controller) PublishFailed(topic string, err error) {
	c.stats.publishFailures.Add(1)
	pubErr := &PublishError{Topic: topic, Err: err}
	c.logger.Warn("outbound publish failed", "topic", topic, "error", err)
	c.reportError(pubErr)
}

func (c *Controller) publish(msgs []Message) {
	if c.publisher == nil {
		return
	}
	for _, m := range msgs {
		if err := c.publisher.Publish(m.Topic, m.Payload, m.QoS, m.Retained); err != nil {
			c.PublishFailed(m.Topic, err)
		}
	}
}

// Process routes one message and performs its registry and store mutations.
// Outbound messages are returned, not sent.
func (c *Controller) Process(ctx context.Context, topic string, payload []byte) Result {
	c.stats.received.Add(1)

	switch {
	case strings.HasPrefix(topic, c.commands.Prefix()):
		return c.processCommand(ctx, topic, payload)
	case strings.HasPrefix(topic, c.readings.Prefix()):
		return c.processReading(ctx, topic, payload)
	default:
		c.stats.unrouted.Add(1)
		return Result{
			Kind:   KindUnrouted,
			Status: StatusRejected,
			Err:    fmt.Errorf("%w: %q", ErrUnroutable, topic),
		}
	}
}

func (c *Controller) processCommand(ctx context.Context, topic string, payload []byte) Result {
	res := Result{Kind: KindCommand}

	cmd, err := c.commands.Decode(topic, payload)
	if err != nil {
		c.stats.commandsRejected.Add(1)
		return c.reject(res, topic, err)
	}

	d, err := c.devices.ApplyCommand(cmd)
	if err != nil {
		c.stats.commandsRejected.Add(1)
		return c.reject(res, topic, err)
	}
	c.stats.commandsApplied.Add(1)

	c.logger.Debug("command applied",
		"command_id", cmd.ID,
		"category", d.Category,
		"device_id", d.ID,
		"state", d.State,
	)

	res.Status = StatusAcknowledged
	res.Device = &d
	c.afterApply(ctx, &res, d, cmd.ID, device.HistorySourceCommand)
	return res
}

func (c *Controller) processReading(ctx context.Context, topic string, payload []byte) Result {
	res := Result{Kind: KindReading}

	r, err := c.readings.Decode(topic, payload)
	if err != nil {
		c.stats.readingsRejected.Add(1)
		return c.reject(res, topic, err)
	}

	stored, err := c.store.Append(ctx, r)
	if err != nil {
		// The reading is dropped and not evaluated.
		c.stats.storeFailures.Add(1)
		c.logger.Error("reading store append failed",
			"sensor_id", r.SensorID,
			"metric", r.Metric,
			"error", err,
		)
		c.reportError(err)
		return c.reject(res, topic, err)
	}
	c.stats.readingsStored.Add(1)

	res.Status = StatusAcknowledged
	res.Reading = &stored
	if c.mirror != nil {
		c.mirror.WriteReading(stored)
	}

	res.Alerts = threshold.Evaluate(stored, c.cfg.Thresholds)
	for _, alert := range res.Alerts {
		c.stats.alerts.Add(1)
		c.logger.Info("threshold breached",
			"alert_id", alert.ID,
			"sensor_id", alert.SensorID,
			"alert_type", alert.AlertType,
			"observed_value", alert.ObservedValue,
			"threshold", alert.Threshold,
			"severity", alert.Severity,
		)

		msg, err := alertMessage(c.topics, alert, c.cfg.QoS)
		if err != nil {
			c.logger.Error("encoding alert", "alert_id", alert.ID, "error", err)
		} else {
			res.Outbound = append(res.Outbound, msg)
		}

		if c.mirror != nil {
			c.mirror.WriteAlert(alert)
		}
		if c.broadcaster != nil {
			c.broadcaster.Broadcast(ChannelAlerts, alert)
		}

		c.runHooks(ctx, &res, alert)
	}

	return res
}

func (c *Controller) runHooks(ctx context.Context, res *Result, alert threshold.AlertEvent) {
	for _, hook := range c.hooks {
		for _, cmd := range hook(ctx, alert) {
			d, err := c.devices.ApplyCommand(cmd)
			if err != nil {
				c.logger.Warn("corrective command rejected",
					"alert_id", alert.ID,
					"device_id", cmd.DeviceID,
					"error", err,
				)
				continue
			}
			c.stats.corrections.Add(1)
			c.logger.Info("corrective command applied",
				"alert_id", alert.ID,
				"category", d.Category,
				"device_id", d.ID,
				"state", d.State,
			)
			res.Corrections = append(res.Corrections, d)
			c.afterApply(ctx, res, d, cmd.ID, device.HistorySourceCorrective)
		}
	}
}

// afterApply records, mirrors and broadcasts an applied device state and
// queues its acknowledgement.
func (c *Controller) afterApply(ctx context.Context, res *Result, d device.Device, commandID, source string) {
	if c.history != nil {
		if err := c.history.Record(ctx, d, source); err != nil {
			c.logger.Warn("recording device state history",
				"category", d.Category,
				"device_id", d.ID,
				"error", err,
			)
		}
	}
	if c.mirror != nil {
		c.mirror.WriteDeviceState(d)
	}
	if c.broadcaster != nil {
		c.broadcaster.Broadcast(ChannelDevices, d)
	}

	if !c.cfg.PublishAcks {
		return
	}
	msg, err := stateMessage(c.topics, d, commandID, source, c.cfg.QoS)
	if err != nil {
		c.logger.Error("encoding state ack", "device_id", d.ID, "error", err)
		return
	}
	res.Outbound = append(res.Outbound, msg)
}

func (c *Controller) reject(res Result, topic string, err error) Result {
	res.Status = StatusRejected
	res.Err = err

	if c.cfg.PublishRejections {
		msg, mErr := rejectionMessage(c.topics, topic, err, c.now())
		if mErr != nil {
			c.logger.Error("encoding rejection", "topic", topic, "error", mErr)
		} else {
			res.Outbound = append(res.Outbound, msg)
		}
	}
	return res
}

func (c *Controller) reportError(err error) {
	c.mu.RLock()
	fn := c.onError
	c.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}
