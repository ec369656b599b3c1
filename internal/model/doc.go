// Package model loads the description of a home and compiles it into the
// objects the engine runs.
//
// A Model lists entities, REST sources and automations. It is read from a
// YAML file (LoadFile) or from the SQLite model tables (SQLiteRepository).
// Build turns it into a Runtime: an entity registry, REST sources for the
// poller and compiled automations for the engine.
//
// # Example
//
//	automations:
//	  - name: cooling
//	    condition: { left: { ref: sensor.temp }, op: ">", right: { value: 0 } }
//	    steps:
//	      - compute: { name: avg, expr: "(sensor.temp + $Weather.temp) / 2" }
//	      - switch:
//	          cases:
//	            - when: { left: { ref: avg }, op: ">=", right: { value: 30 } }
//	              steps:
//	                - action: { entity: fan, attribute: speed, value: 3 }
//	          default:
//	            - action: { entity: fan, attribute: speed, value: 1 }
//
// Operand refs use "entity.attribute", "$Source.field" or a variable bound
// by an earlier compute step.
package model
