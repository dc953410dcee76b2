// Package sensor simulates field sensors for development and demos.
//
// A Simulator publishes one reading per configured sensor on every tick to
// {root}/sensors/{metric}/{sensor_id}, through the same MQTT connection the
// controller subscribes on, so simulated readings follow exactly the path
// real ones do. Values are uniform in [min, max].
package sensor
