package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-rules/internal/automation"
	"github.com/nerrad567/gray-logic-rules/internal/rest"
	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// Measurement names.
const (
	MeasurementRESTFields     = "rest_fields"
	MeasurementAutomationRuns = "automation_runs"
)

// WriteRESTSample records one mapped REST field. Numbers are written as
// a float "value" field, booleans as a bool "state" field; other values
// are skipped.
func (c *Client) WriteRESTSample(source, field string, value any, at time.Time) {
	if !c.IsConnected() {
		return
	}
	if p := restSamplePoint(source, field, value, at); p != nil {
		c.writeAPI.WritePoint(p)
	}
}

// WriteAutomationRun records one triggered run of an automation.
func (c *Client) WriteAutomationRun(name, runID string, duration time.Duration, steps int, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(automationRunPoint(name, runID, duration, steps, at))
}

// PollSucceeded implements rest.Observer by writing every mapped field.
func (c *Client) PollSucceeded(source string, fields map[string]any, _ time.Duration) {
	now := time.Now()
	for field, v := range fields {
		c.WriteRESTSample(source, field, v, now)
	}
}

// PollFailed implements rest.Observer. Failures are counted by metrics, not stored.
func (c *Client) PollFailed(string, error, time.Duration) {}

// RecordRun implements automation.RunRecorder.
func (c *Client) RecordRun(name, runID string, duration time.Duration, steps int) {
	c.WriteAutomationRun(name, runID, duration, steps, time.Now())
}

func restSamplePoint(source, field string, value any, at time.Time) *write.Point {
	tags := map[string]string{"source": source, "field": field}

	if b, ok := value.(bool); ok {
		return write.NewPoint(MeasurementRESTFields, tags, map[string]any{"state": b}, at)
	}
	if n, ok := scope.Number(value); ok {
		return write.NewPoint(MeasurementRESTFields, tags, map[string]any{"value": n}, at)
	}
	return nil
}

// run_id is a field, not a tag, to keep series cardinality per automation.
func automationRunPoint(name, runID string, duration time.Duration, steps int, at time.Time) *write.Point {
	return write.NewPoint(MeasurementAutomationRuns,
		map[string]string{"automation": name},
		map[string]any{
			"run_id":      runID,
			"duration_ms": float64(duration) / float64(time.Millisecond),
			"steps":       steps,
		},
		at)
}

var (
	_ rest.Observer          = (*Client)(nil)
	_ automation.RunRecorder = (*Client)(nil)
)
