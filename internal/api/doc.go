// Package api implements the HTTP REST API and WebSocket server for the
// rules engine.
//
// It exposes:
//   - automation status and control (enable, disable, start, restart, evaluate)
//   - entity attributes as last received from MQTT
//   - the REST value store, with the age of each field
//   - a WebSocket hub relaying automation state changes and entity updates
//   - the Prometheus /metrics handler and a JSON health report
//
// The server follows the same lifecycle pattern as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Automations started over HTTP are not tied to the request: they run until
// the engine stops.
package api
