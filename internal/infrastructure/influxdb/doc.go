// Package influxdb provides InfluxDB connectivity for the parkrunner core.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched point writes and health monitoring. The telemetry
// package decides what to write; this package only knows about points.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without time-series telemetry
//	}
//	defer client.Close()
//
//	client.WritePoint("range",
//	    map[string]string{"robot_id": "parkrunner-01"},
//	    map[string]any{"angle": 30.0, "distance": 0.42})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are batched internally and flushed on size threshold or timer.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are reported through the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
