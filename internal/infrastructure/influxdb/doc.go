// Package influxdb writes rules engine telemetry to InfluxDB 2.x.
//
// Two measurements are written:
//
//	rest_fields,source=Weather,field=temp value=21.5
//	automation_runs,automation=cooling run_id="9f1c",duration_ms=3.2,steps=4i
//
// The Client implements rest.Observer and automation.RunRecorder, so the
// run command attaches it to the poller and the engine when influxdb is
// enabled. Writes are batched and never block the caller.
package influxdb
