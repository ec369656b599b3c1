package mqtt

import "strings"

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "graylogic"

// Topics builds the rules engine's MQTT topics under a prefix.
//
//	t := mqtt.Topics{Prefix: "home"}
//	t.EntityCommand("fan") // home/entity/fan/command
//	t.EntityState("fan")   // home/entity/fan/state
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if p := strings.Trim(t.Prefix, "/"); p != "" {
		return p
	}
	return DefaultTopicPrefix
}

// EntityCommand is where commands for an entity without its own topic go.
func (t Topics) EntityCommand(entity string) string {
	return t.prefix() + "/entity/" + entity + "/command"
}

// EntityState is where state for an entity without its own topic arrives.
func (t Topics) EntityState(entity string) string {
	return t.prefix() + "/entity/" + entity + "/state"
}

// StateOf returns the state topic paired with an entity's own command topic.
func (Topics) StateOf(topic string) string {
	return strings.TrimSuffix(topic, "/") + "/state"
}

// Status is the retained online/offline status of the rules engine.
func (t Topics) Status() string {
	return t.prefix() + "/rules/status"
}

