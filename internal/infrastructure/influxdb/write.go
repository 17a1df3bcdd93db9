package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint queues one point. A zero timestamp means "now".
// The write is non-blocking; points are dropped while disconnected.
//
// Example:
//
//	client.WritePoint("setting_change",
//	    map[string]string{"device_id": "marauder-001", "name": "SavePCAP"},
//	    map[string]any{"value": false, "numeric": 0.0},
//	    time.Time{})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(NewPoint(measurement, tags, fields, timestamp))
}

// NewPoint builds the point WritePoint would queue.
func NewPoint(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) *write.Point {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	return write.NewPoint(measurement, tags, fields, timestamp)
}
