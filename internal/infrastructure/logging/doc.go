// Package logging provides structured logging for homectl.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and level filtering. Three formats are supported:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text, console
//	  output: "stdout"   # stdout, stderr
//
// The console format uses a colourised handler meant for interactive use.
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting controller", "broker", host)
//	logger.Error("append failed", "error", err)
//
// Never log MQTT passwords, InfluxDB tokens or API secrets.
package logging
