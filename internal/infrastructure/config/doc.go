// Package config handles loading and validating homectl configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading an optional .env file beside the config file
//   - Overriding with HOMECTL_* environment variables
//   - Validation of required fields and threshold bounds
//
// Sensitive values (MQTT password, InfluxDB token, API JWT secret) should be
// set via environment variables rather than committed to the YAML file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker.Host)
package config
