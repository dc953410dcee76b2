// homectl - home automation controller
//
// homectl bridges an MQTT broker to an in-memory device registry and a
// SQLite reading store. Commands arrive on {root}/devices/..., sensor
// readings on {root}/sensors/...; readings outside configured thresholds
// raise alerts on {root}/alerts/{metric}.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on Ctrl+C or SIGTERM so serve can shut down cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err) //nolint:errcheck // stderr
		os.Exit(1)
	}
}

// getConfigPath returns HOMECTL_CONFIG when set, else the default path.
func getConfigPath() string {
	if path := os.Getenv("HOMECTL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
