package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint writes a data point stamped with the current time.
//
// This is non-blocking - the point is added to a batch buffer and flushed
// asynchronously according to the configured batch size and flush interval.
//
// Parameters:
//   - measurement: The measurement name (e.g., "steering")
//   - tags: Indexed metadata for filtering (e.g., {"robot_id": "parkrunner-01"})
//   - fields: The actual data values
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a data point with an explicit timestamp.
//
// The control loops stamp samples when they are taken, not when they reach
// the batch, so telemetry uses this form.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
