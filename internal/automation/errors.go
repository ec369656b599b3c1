package automation

import (
	"errors"
	"fmt"
)

// Domain errors for the automation package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, automation.ErrAutomationNotFound) {
//	    // handle not found case
//	}
var (
	// ErrAutomationNotFound is returned when no automation has the given name.
	ErrAutomationNotFound = errors.New("automation: not found")

	// ErrDuplicateAutomation is returned when two automations share a name.
	ErrDuplicateAutomation = errors.New("automation: duplicate name")

	// ErrUnknownDependency is returned when after/starts/stops names an unknown automation.
	ErrUnknownDependency = errors.New("automation: unknown dependency")

	// ErrInvalidAutomation is returned when a definition fails validation.
	ErrInvalidAutomation = errors.New("automation: invalid definition")

	// ErrAlreadyRunning is returned when starting an automation whose goroutine is alive.
	ErrAlreadyRunning = errors.New("automation: already running")

	// ErrAutomationFailed is returned when starting or restarting an automation that exited with a failure.
	ErrAutomationFailed = errors.New("automation: exited with failure")

	// ErrAutomationExited is returned when starting an automation that has
	// already finished. Restart resets and relaunches it.
	ErrAutomationExited = errors.New("automation: already exited, use restart")

	// ErrInvalidTransition is returned when a lifecycle trigger is not
	// permitted from the current state.
	ErrInvalidTransition = errors.New("automation: invalid state transition")

	// ErrUnknownEntity is returned when an action targets an entity that does not exist.
	ErrUnknownEntity = errors.New("automation: unknown entity")
)

// FatalError is an unhandled failure inside an automation's run loop.
// It moves that automation to StateExitedFailure and ends its goroutine.
type FatalError struct {
	Automation string
	Err        error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("automation %s: fatal: %v", e.Automation, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// UnsupportedConstructError is returned when a step kind or step field is
// not recognised. The automation is never scheduled.
type UnsupportedConstructError struct {
	Construct string
	Value     string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("automation: unsupported %s %q", e.Construct, e.Value)
}
