package automation

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-rules/internal/condition"
)

// State is the lifecycle state of an automation's scheduling goroutine.
type State int32

// Automation states.
const (
	// StateIdle means the automation has not started evaluating yet, or was reset by Restart.
	StateIdle State = iota
	// StateRunning means the automation is evaluating its condition every cycle.
	StateRunning
	// StateExitedSuccess means a check-once automation finished its single evaluation.
	StateExitedSuccess
	// StateExitedFailure means an unhandled error stopped the automation permanently.
	StateExitedFailure
)

var stateNames = map[State]string{
	StateIdle:          "IDLE",
	StateRunning:       "RUNNING",
	StateExitedSuccess: "EXITED_SUCCESS",
	StateExitedFailure: "EXITED_FAILURE",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText encodes the state by name, e.g. for JSON API responses.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for st, name := range stateNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown automation state %q", text)
}

// DefaultFrequency is the evaluation rate, in Hz, used when none is set.
const DefaultFrequency = 1.0

// Definition is everything needed to build an Automation.
// The model builder fills it from a parsed description.
type Definition struct {
	Name        string
	Description string

	Condition *condition.Condition

	// Steps is the step pipeline. When empty, Actions is used instead.
	Steps []Step
	// Actions is the legacy flat action list.
	Actions []LegacyAction

	// Frequency is the evaluation rate in Hz. Zero means DefaultFrequency.
	Frequency float64
	// StartDelay is slept once before the first evaluation.
	StartDelay time.Duration

	Enabled    bool
	Continuous bool
	CheckOnce  bool

	// After, Starts and Stops name other automations.
	After  []string
	Starts []string
	Stops  []string
}

// LegacyAction sets one attribute on one entity. Legacy actions of a
// triggered automation are batched into one publish per entity.
type LegacyAction struct {
	Entity    string
	Attribute string
	Value     any
}

// Status is a point-in-time view of an automation for API responses.
type Status struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	State       State    `json:"state"`
	Enabled     bool     `json:"enabled"`
	Continuous  bool     `json:"continuous"`
	CheckOnce   bool     `json:"check_once"`
	Frequency   float64  `json:"frequency"`
	Condition   string   `json:"condition"`
	Steps       int      `json:"steps"`
	Actions     int      `json:"actions"`
	After       []string `json:"after,omitempty"`
	Starts      []string `json:"starts,omitempty"`
	Stops       []string `json:"stops,omitempty"`
	Reads       []string `json:"reads,omitempty"`
}
