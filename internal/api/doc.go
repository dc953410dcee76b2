// Package api implements the read-only HTTP status API and the WebSocket
// event stream for homectl.
//
// This package provides:
//   - REST endpoints for device state, state history and recent readings
//   - Controller and runtime metrics
//   - A WebSocket hub that relays alerts and device changes to subscribers
//   - Optional HS256 bearer-token authentication
//
// # Architecture
//
// The API never changes device state; commands only arrive over MQTT. The
// controller pushes alerts and applied device states into the Hub, which
// fans them out to every client subscribed to the matching channel
// ("alerts" or "devices").
//
// # Security
//
// When api.auth.jwt_secret is set, every route except /api/v1/health requires
// an "Authorization: Bearer <token>" header. WebSocket clients that cannot
// set headers may pass the token as the "token" query parameter instead.
package api
