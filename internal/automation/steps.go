package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-rules/internal/condition"
	"github.com/nerrad567/gray-logic-rules/internal/mathexpr"
	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// Step is one instruction of an automation pipeline.
// The set of implementations is closed: Delay, Compute, Action and Switch.
type Step interface {
	Kind() string
	isStep()
}

// Delay pauses the automation's own goroutine. A delay in progress is not
// interrupted by Disable or by engine shutdown.
type Delay struct {
	Duration time.Duration
}

// Compute evaluates Expr and binds the result to Name in the run's
// ExecutionContext. On failure the error is logged and Name stays unbound.
type Compute struct {
	Name string
	Expr mathexpr.Expr
}

// Action publishes {Attribute: value} to Entity. The value is Value, or the
// result of Expr when Expr is set. Each Action is its own publish.
type Action struct {
	Entity    string
	Attribute string
	Value     any
	Expr      mathexpr.Expr
}

// Case is one guarded branch of a Switch.
type Case struct {
	When  *condition.Condition
	Steps []Step
}

// Switch runs the steps of the first case whose guard holds, or Default
// when none does.
type Switch struct {
	Cases   []Case
	Default []Step
}

func (Delay) isStep()   {}
func (Compute) isStep() {}
func (Action) isStep()  {}
func (Switch) isStep()  {}

// Step kinds as reported by Kind.
const (
	KindDelay   = "delay"
	KindCompute = "compute"
	KindAction  = "action"
	KindSwitch  = "switch"
)

func (Delay) Kind() string   { return KindDelay }
func (Compute) Kind() string { return KindCompute }
func (Action) Kind() string  { return KindAction }
func (Switch) Kind() string  { return KindSwitch }

// runner interprets a step pipeline for one triggered run.
type runner struct {
	automation string
	runID      string
	entities   scope.Entities
	scope      scope.Scope
	vars       *ExecutionContext
	logger     Logger
	metrics    Metrics
	sleep      func(time.Duration)

	executed  int
	published int
}

func (r *runner) run(ctx context.Context, steps []Step) error {
	for _, s := range steps {
		if err := r.step(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) step(ctx context.Context, s Step) error {
	r.executed++

	switch s := s.(type) {
	case Delay:
		if s.Duration > 0 {
			r.sleep(s.Duration)
		}
		return nil

	case Compute:
		v, err := mathexpr.Eval(s.Expr, r.scope.WithVars(r.vars.vars()))
		if err != nil {
			r.logger.Warn("compute step failed",
				"automation", r.automation,
				"run_id", r.runID,
				"variable", s.Name,
				"error", err,
			)
			r.metrics.ComputeFailed(r.automation)
			return nil
		}
		r.vars.Set(s.Name, v)
		return nil

	case Action:
		return r.action(ctx, s)

	case Switch:
		return r.switchStep(ctx, s)

	default:
		return &UnsupportedConstructError{Construct: "step", Value: fmt.Sprintf("%T", s)}
	}
}

func (r *runner) action(ctx context.Context, a Action) error {
	value := a.Value
	if a.Expr != nil {
		v, err := mathexpr.Eval(a.Expr, r.scope.WithVars(r.vars.vars()))
		if err != nil {
			r.logger.Warn("action value failed, publish skipped",
				"automation", r.automation,
				"run_id", r.runID,
				"entity", a.Entity,
				"attribute", a.Attribute,
				"error", err,
			)
			r.metrics.ComputeFailed(r.automation)
			return nil
		}
		value = v
	}

	ent, ok := r.entities.Get(a.Entity)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, a.Entity)
	}
	if err := ent.Publish(ctx, map[string]any{a.Attribute: value}); err != nil {
		return err
	}
	r.published++

	r.logger.Debug("action published",
		"automation", r.automation,
		"run_id", r.runID,
		"entity", a.Entity,
		"attribute", a.Attribute,
		"value", value,
	)
	return nil
}

func (r *runner) switchStep(ctx context.Context, s Switch) error {
	guardScope := r.scope.WithVars(r.vars.vars())
	for i, c := range s.Cases {
		ok, err := c.When.Check(guardScope)
		if err != nil {
			r.logger.Warn("switch guard failed, treated as false",
				"automation", r.automation,
				"run_id", r.runID,
				"case", i,
				"error", err,
			)
			continue
		}
		if ok {
			return r.run(ctx, c.Steps)
		}
	}
	return r.run(ctx, s.Default)
}
