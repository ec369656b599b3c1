// Package bus carries entity traffic over MQTT.
//
// Publisher sends automation actions as JSON objects to each entity's
// command topic. Feed subscribes to each entity's state topic and writes
// the received attributes into the entity, which also fills its ring
// buffers for aggregate conditions.
//
//	entity topic "home/fan":   commands -> home/fan,        state <- home/fan/state
//	no topic, prefix "home":   commands -> home/entity/fan/command
//	                           state    <- home/entity/fan/state
package bus
