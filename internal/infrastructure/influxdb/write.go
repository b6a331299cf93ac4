package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSwitchEvent records a single relay switch to InfluxDB.
//
// This is the primary telemetry method: one point per dispatched schedule
// event. The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - runID: The run the event belongs to
//   - name: The channel's configured name (e.g., "grow-light")
//   - channel: Relay channel number (1..8)
//   - state: 0 (released) or 1 (activated)
//
// Example:
//
//	client.WriteSwitchEvent("run-a1b2c3d4", "grow-light", 2, 1)
func (c *Client) WriteSwitchEvent(runID, name string, channel, state int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"switch_events",
		map[string]string{
			"run_id": runID,
			"name":   name,
		},
		map[string]interface{}{
			"channel": channel,
			"state":   state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteRunResult records a run termination summary.
//
// Parameters:
//   - runID: The terminated run
//   - outcome: completed, cancelled or partial
//   - dispatched: Events actually sent to the board
//   - total: Events the schedule contained
//   - duration: Wall-clock run duration
func (c *Client) WriteRunResult(runID, outcome string, dispatched, total int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"run_results",
		map[string]string{
			"run_id":  runID,
			"outcome": outcome,
		},
		map[string]interface{}{
			"events_dispatched": dispatched,
			"events_total":      total,
			"duration_seconds":  duration.Seconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
