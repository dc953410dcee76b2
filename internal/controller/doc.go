// Package controller routes inbound MQTT messages through the home automation core.
//
// Every message follows one path:
//
//	{root}/devices/...  decode command -> apply to registry -> ack on {root}/state/{category}/{id}
//	{root}/sensors/...  decode reading -> append to store -> evaluate thresholds -> alert on {root}/alerts/{metric}
//
// Process is the synchronous step. It mutates the registry and store and
// returns the messages that should go out, without sending them.
// HandleMessage wraps Process for the MQTT subscription: it publishes the
// outbound messages fire-and-forget and never returns an error, so one bad
// message cannot affect the next.
//
// Thread Safety: Process and HandleMessage are safe for concurrent use.
// Ordering between messages is only what the registry lock and the store's
// append serialization provide.
package controller
