// Package influxdb mirrors homectl activity into InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. The SQLite reading
// store remains the system of record; InfluxDB holds a copy for dashboards:
//   - reading: every stored sensor reading
//   - alert: every threshold breach
//   - device_state: every applied device command
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ctrl.SetMirror(client)
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval).
// Batch failures are delivered to the SetOnError callback. Connection and
// health check errors are returned directly.
package influxdb
