// Package entity holds the live state of the devices automations reason about.
//
// An Entity is a named bag of attributes. Attribute values arrive from an
// external feed (the MQTT bus) through Update; conditions and expressions
// only read them. Publishing a command goes through the entity's Publisher
// and never touches the local attribute values.
//
// Aggregate conditions (mean, std, ...) read from a Buffer: a fixed-size ring
// of recent values for one attribute. Buffers are created lazily by Buffer
// and shared, so two conditions asking for the mean of the same attribute
// over the same window read the same samples.
package entity
