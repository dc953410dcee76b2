// Package mqtt provides the MQTT transport for homectl.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Synchronous and fire-and-forget publishing
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Last Will and Testament on {root}/system/status for offline detection
//
// Handlers are dispatched concurrently, so the controller must be safe for
// concurrent calls (it is).
//
// # Usage
//
//	topics := mqtt.Topics{Root: cfg.Topics.Root}
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topics.AllSensorReadings(), 1, ctrl.HandleMessage)
//
//	pub := mqtt.NewAsyncPublisher(client, ctrl.PublishFailed)
//	pub.Publish(topics.Alert("temperature"), payload, 1, false)
package mqtt
