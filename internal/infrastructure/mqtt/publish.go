package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends a message and waits for the broker to accept it.
//
// QoS 0 is at most once, 1 at least once, 2 exactly once. Retained messages
// are delivered to new subscribers; use them for state topics only.
//
// Example:
//
//	topic := mqtt.Topics{Root: "home"}.DeviceCommand("lights", "kitchen")
//	err := client.Publish(topic, []byte(`{"state":"on"}`), 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := c.validatePublish(topic, payload, qos); err != nil {
		return err
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return timeoutError(ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishAsync hands a message to paho without waiting for the broker.
//
// Validation and connection errors are returned immediately. Anything that
// goes wrong afterwards (including a timeout) is passed to onFailure from a
// separate goroutine; onFailure may be nil. Nothing is retried.
func (c *Client) PublishAsync(topic string, payload []byte, qos byte, retained bool, onFailure func(topic string, err error)) error {
	if err := c.validatePublish(topic, payload, qos); err != nil {
		return err
	}

	token := c.client.Publish(topic, qos, retained, payload)
	go func() {
		var err error
		if !token.WaitTimeout(defaultPublishTimeout) {
			err = timeoutError(ErrPublishFailed, defaultPublishTimeout)
		} else if tokenErr := token.Error(); tokenErr != nil {
			err = fmt.Errorf("%w: %w", ErrPublishFailed, tokenErr)
		}
		if err == nil {
			return
		}
		if onFailure != nil {
			onFailure(topic, err)
			return
		}
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT async publish failed", "topic", topic, "error", err)
		}
	}()

	return nil
}

func (c *Client) validatePublish(topic string, payload []byte, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// AsyncPublisher adapts a Client to the synchronous Publish signature while
// publishing fire-and-forget through PublishAsync.
type AsyncPublisher struct {
	client    *Client
	onFailure func(topic string, err error)
}

// NewAsyncPublisher creates an AsyncPublisher. onFailure receives late
// publish failures and may be nil.
func NewAsyncPublisher(client *Client, onFailure func(topic string, err error)) *AsyncPublisher {
	return &AsyncPublisher{client: client, onFailure: onFailure}
}

// Publish queues the message and returns without waiting for the broker.
func (p *AsyncPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return p.client.PublishAsync(topic, payload, qos, retained, p.onFailure)
}
