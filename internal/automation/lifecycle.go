package automation

import (
	"context"
	"fmt"
	"sync"

	"github.com/qmuntal/stateless"
)

// Lifecycle triggers.
const (
	triggerRun    = "run"
	triggerFinish = "finish"
	triggerFail   = "fail"
	triggerReset  = "reset"
)

// lifecycle holds the permitted state transitions of one automation:
//
//	IDLE           --run-->    RUNNING
//	RUNNING        --finish--> EXITED_SUCCESS
//	RUNNING        --fail-->   EXITED_FAILURE
//	RUNNING        --reset-->  IDLE   (goroutine already gone)
//	EXITED_SUCCESS --reset-->  IDLE
//
// EXITED_FAILURE is terminal. The state is stored in the automation's
// atomic, so State never takes the lock.
type lifecycle struct {
	mu      sync.Mutex
	machine *stateless.StateMachine
}

func newLifecycle(a *Automation) *lifecycle {
	m := stateless.NewStateMachineWithExternalStorage(
		func(context.Context) (stateless.State, error) {
			return a.State(), nil
		},
		func(_ context.Context, s stateless.State) error {
			a.setState(s.(State))
			return nil
		},
		stateless.FiringImmediate,
	)

	m.Configure(StateIdle).
		Permit(triggerRun, StateRunning).
		PermitReentry(triggerReset)

	// A goroutine cancelled while RUNNING leaves the state behind; the
	// next launch re-enters it.
	m.Configure(StateRunning).
		PermitReentry(triggerRun).
		Permit(triggerFinish, StateExitedSuccess).
		Permit(triggerFail, StateExitedFailure).
		Permit(triggerReset, StateIdle)

	m.Configure(StateExitedSuccess).
		Permit(triggerReset, StateIdle)

	m.Configure(StateExitedFailure)

	return &lifecycle{machine: m}
}

// fire applies trigger and returns the states before and after it.
func (l *lifecycle) fire(a *Automation, trigger string) (from, to State, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	from = a.State()
	if err := l.machine.Fire(trigger); err != nil {
		return from, from, fmt.Errorf("%w: %s cannot %s from %s", ErrInvalidTransition, a.name, trigger, from)
	}
	return from, a.State(), nil
}

// can reports whether trigger is permitted from the current state.
func (l *lifecycle) can(trigger string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ok, err := l.machine.CanFire(trigger)
	return err == nil && ok
}
