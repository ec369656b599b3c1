package automation

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-rules/internal/condition"
	"github.com/nerrad567/gray-logic-rules/internal/mathexpr"
	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// Automation is a compiled rule: a condition, what to do when it holds and
// how often to check it.
//
// Thread Safety: the enabled flag and the state are atomics, so Enable,
// Disable, State and EvaluateCondition may be called from any goroutine.
type Automation struct {
	name        string
	description string
	condition   *condition.Condition
	steps       []Step
	actions     []LegacyAction
	frequency   float64
	period      time.Duration
	startDelay  time.Duration
	continuous  bool
	checkOnce   bool

	afterNames  []string
	startsNames []string
	stopsNames  []string

	// Resolved by NewEngine.
	after  []*Automation
	starts []*Automation
	stops  []*Automation

	enabled   atomic.Bool
	state     atomic.Int32
	lifecycle *lifecycle
}

// New validates def and builds an Automation in StateIdle.
func New(def Definition) (*Automation, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}

	freq := def.Frequency
	if freq <= 0 {
		freq = DefaultFrequency
	}

	a := &Automation{
		name:        def.Name,
		description: def.Description,
		condition:   def.Condition,
		steps:       def.Steps,
		actions:     def.Actions,
		frequency:   freq,
		period:      time.Duration(float64(time.Second) / freq),
		startDelay:  def.StartDelay,
		continuous:  def.Continuous,
		checkOnce:   def.CheckOnce,
		afterNames:  slices.Clone(def.After),
		startsNames: slices.Clone(def.Starts),
		stopsNames:  slices.Clone(def.Stops),
	}
	a.enabled.Store(def.Enabled)
	a.state.Store(int32(StateIdle))
	a.lifecycle = newLifecycle(a)
	return a, nil
}

// Name returns the automation name.
func (a *Automation) Name() string { return a.name }

// Description returns the free-text description.
func (a *Automation) Description() string { return a.description }

// Frequency returns the evaluation rate in Hz.
func (a *Automation) Frequency() float64 { return a.frequency }

// Enabled reports whether the condition is currently evaluated.
func (a *Automation) Enabled() bool { return a.enabled.Load() }

// Enable lets the condition evaluate again.
func (a *Automation) Enable() { a.enabled.Store(true) }

// Disable makes the condition evaluate false without reading live state.
func (a *Automation) Disable() { a.enabled.Store(false) }

// State returns the current lifecycle state.
func (a *Automation) State() State { return State(a.state.Load()) }

func (a *Automation) setState(s State) { a.state.Store(int32(s)) }

// EvaluateCondition checks the condition against s.
//
// The diagnostic is "<name>: triggered.", "<name>: not triggered." or
// "<name>: Automation disabled.".
func (a *Automation) EvaluateCondition(s scope.Scope) (bool, string) {
	ok, diag, _ := a.evaluate(s)
	return ok, diag
}

// evaluate is EvaluateCondition plus the evaluation error, if any.
func (a *Automation) evaluate(s scope.Scope) (bool, string, error) {
	if !a.Enabled() {
		return false, fmt.Sprintf("%s: Automation disabled.", a.name), nil
	}
	ok, err := a.condition.Check(s)
	if err != nil || !ok {
		return false, fmt.Sprintf("%s: %s.", a.name, condition.NotTriggered), err
	}
	return true, fmt.Sprintf("%s: %s.", a.name, condition.Triggered), nil
}

// Status returns a snapshot for reporting.
func (a *Automation) Status() Status {
	return Status{
		Name:        a.name,
		Description: a.description,
		State:       a.State(),
		Enabled:     a.Enabled(),
		Continuous:  a.continuous,
		CheckOnce:   a.checkOnce,
		Frequency:   a.frequency,
		Condition:   a.condition.String(),
		Steps:       len(a.steps),
		Actions:     len(a.actions),
		After:       slices.Clone(a.afterNames),
		Starts:      slices.Clone(a.startsNames),
		Stops:       slices.Clone(a.stopsNames),
		Reads:       a.Reads(),
	}
}

// Reads returns the references read by the compute and action expressions
// of the step pipeline, deduplicated in first-use order.
func (a *Automation) Reads() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(e mathexpr.Expr) {
		if e == nil {
			return
		}
		for _, r := range mathexpr.Refs(e) {
			if name := r.String(); !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}

	var walk func(steps []Step)
	walk = func(steps []Step) {
		for _, st := range steps {
			switch s := st.(type) {
			case Compute:
				add(s.Expr)
			case Action:
				add(s.Expr)
			case Switch:
				for _, c := range s.Cases {
					walk(c.Steps)
				}
				walk(s.Default)
			}
		}
	}
	walk(a.steps)
	return out
}
