package automation

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// DefaultDependencyPoll is how often a waiting automation re-checks its
// after dependencies.
const DefaultDependencyPoll = time.Second

// WSHub is the interface for broadcasting WebSocket events.
type WSHub interface {
	// Broadcast sends an event to all clients subscribed to the given channel.
	Broadcast(channel string, payload any)
}

// RunRecorder stores a record of each triggered run, e.g. as a time-series point.
type RunRecorder interface {
	RecordRun(automation, runID string, duration time.Duration, steps int)
}

// Metrics receives scheduler counters.
type Metrics interface {
	AutomationTriggered(automation string)
	AutomationStateChanged(automation string, state State)
	ConditionFailed(automation string)
	ComputeFailed(automation string)
}

type noopMetrics struct{}

func (noopMetrics) AutomationTriggered(string)           {}
func (noopMetrics) AutomationStateChanged(string, State) {}
func (noopMetrics) ConditionFailed(string)               {}
func (noopMetrics) ComputeFailed(string)                 {}

// Engine schedules automations. Each started automation runs on its own
// goroutine, evaluating its condition once per period and running its
// steps (or legacy actions) when it triggers.
//
// Thread Safety: all public methods are safe for concurrent use.
type Engine struct {
	registry *Registry
	entities scope.Entities
	values   scope.Values
	logger   Logger
	hub      WSHub
	recorder RunRecorder
	metrics  Metrics

	dependencyPoll time.Duration
	sleep          func(time.Duration) // Delay steps

	ctx    context.Context //nolint:containedctx // engine lifetime, cancelled by Stop
	cancel context.CancelFunc

	mu      sync.Mutex
	running map[string]chan struct{} // closed when the goroutine exits
	wg      sync.WaitGroup
}

// NewEngine creates an engine over the given automations.
//
// Parameters:
//   - automations: compiled automations, names must be unique
//   - entities: entity lookup for conditions and actions
//   - values: REST value store read by conditions and compute steps (may be nil)
//   - logger: Logger instance (may be nil)
//
// Returns an error if a name is duplicated or an after/starts/stops
// dependency names an unknown automation.
func NewEngine(automations []*Automation, entities scope.Entities, values scope.Values, logger Logger) (*Engine, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	registry := NewRegistry()
	for _, a := range automations {
		if err := registry.Add(a); err != nil {
			return nil, err
		}
	}
	if err := registry.Resolve(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		registry:       registry,
		entities:       entities,
		values:         values,
		logger:         logger,
		metrics:        noopMetrics{},
		dependencyPoll: DefaultDependencyPoll,
		sleep:          time.Sleep,
		ctx:            ctx,
		cancel:         cancel,
		running:        make(map[string]chan struct{}),
	}, nil
}

// SetHub sets the WebSocket hub for trigger and state events.
func (e *Engine) SetHub(hub WSHub) {
	e.hub = hub
}

// SetRecorder sets where triggered runs are recorded.
func (e *Engine) SetRecorder(r RunRecorder) {
	e.recorder = r
}

// SetMetrics sets the metrics sink.
func (e *Engine) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	e.metrics = m
}

// Registry returns the engine's automation registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Get returns the automation called name.
func (e *Engine) Get(name string) (*Automation, error) {
	return e.registry.Get(name)
}

// List returns every automation in model order.
func (e *Engine) List() []*Automation {
	return e.registry.List()
}

// State returns the current state of the automation called name.
func (e *Engine) State(name string) (State, error) {
	a, err := e.registry.Get(name)
	if err != nil {
		return StateIdle, err
	}
	return a.State(), nil
}

// Evaluate runs the condition of the automation called name once against
// the current entities and REST values, without triggering it.
func (e *Engine) Evaluate(name string) (bool, string, error) {
	a, err := e.registry.Get(name)
	if err != nil {
		return false, "", err
	}
	ok, msg := a.EvaluateCondition(e.scope())
	return ok, msg, nil
}

// Enable sets the enabled flag of the automation called name.
// A cycle already in progress is not interrupted.
func (e *Engine) Enable(name string) error {
	a, err := e.registry.Get(name)
	if err != nil {
		return err
	}
	a.Enable()
	e.logger.Info("automation enabled", "automation", name)
	return nil
}

// Disable clears the enabled flag of the automation called name.
// A cycle already in progress is not interrupted.
func (e *Engine) Disable(name string) error {
	a, err := e.registry.Get(name)
	if err != nil {
		return err
	}
	a.Disable()
	e.logger.Info("automation disabled", "automation", name)
	return nil
}

// Start launches the scheduling goroutine for the automation called name.
//
// The goroutine ends when ctx or the engine is cancelled, when a
// check-once automation finishes, or on a fatal error.
//
// Returns:
//   - ErrAutomationNotFound if no automation has that name
//   - ErrAlreadyRunning if its goroutine is still alive
//   - ErrAutomationExited if it finished; use Restart
//   - ErrAutomationFailed if it exited with a failure
func (e *Engine) Start(ctx context.Context, name string) error {
	a, err := e.registry.Get(name)
	if err != nil {
		return err
	}
	if !a.lifecycle.can(triggerRun) {
		return exitedError(a)
	}
	return e.launch(ctx, a)
}

// StartAll starts every automation that is not already running.
func (e *Engine) StartAll(ctx context.Context) error {
	for _, a := range e.registry.List() {
		if err := e.Start(ctx, a.name); err != nil {
			return err
		}
	}
	return nil
}

// Restart re-enables an automation that exited successfully, resets it to
// StateIdle and starts it again. A still-running automation is only
// re-enabled. A failed automation is not restarted.
func (e *Engine) Restart(ctx context.Context, name string) error {
	a, err := e.registry.Get(name)
	if err != nil {
		return err
	}
	if a.State() == StateExitedFailure {
		return exitedError(a)
	}

	a.Enable()
	done, alive := e.done(name)
	if alive {
		if a.State() != StateExitedSuccess {
			return nil
		}
		// Finished but not yet unregistered: the goroutine returns right
		// after setting the state.
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if !e.fire(a, triggerReset) {
		return exitedError(a)
	}
	return e.launch(ctx, a)
}

// exitedError explains why a cannot be started from its current state.
func exitedError(a *Automation) error {
	if a.State() == StateExitedFailure {
		return fmt.Errorf("%w: %s", ErrAutomationFailed, a.name)
	}
	return fmt.Errorf("%w: %s", ErrAutomationExited, a.name)
}

// Stop cancels every automation's inter-cycle wait and waits for the
// goroutines to exit. A Delay step already sleeping runs to completion.
// Automation states are left as they were.
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
	e.logger.Info("automation engine stopped")
}

// done returns the exit channel of name's goroutine, if one is alive.
func (e *Engine) done(name string) (<-chan struct{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.running[name]
	return ch, ok
}

func (e *Engine) launch(ctx context.Context, a *Automation) error {
	if e.ctx.Err() != nil {
		return e.ctx.Err()
	}

	e.mu.Lock()
	if _, ok := e.running[a.name]; ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, a.name)
	}
	done := make(chan struct{})
	e.running[a.name] = done
	e.wg.Add(1)
	e.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)

	go func() {
		defer e.wg.Done()
		defer func() {
			stop()
			cancel()
			e.mu.Lock()
			delete(e.running, a.name)
			e.mu.Unlock()
			close(done)
		}()
		e.run(runCtx, a)
	}()

	e.logger.Info("automation started",
		"automation", a.name,
		"frequency_hz", a.frequency,
		"after", a.afterNames,
	)
	return nil
}

// run is the scheduling loop of one automation.
func (e *Engine) run(ctx context.Context, a *Automation) {
	if !e.awaitDependencies(ctx, a) {
		return
	}
	if !e.fire(a, triggerRun) {
		return
	}

	if a.startDelay > 0 && !wait(ctx, a.startDelay) {
		return
	}

	for {
		if err := e.cycle(ctx, a); err != nil {
			fatal := &FatalError{Automation: a.name, Err: err}
			e.logger.Error("automation failed, scheduling stopped",
				"automation", a.name,
				"error", fatal,
			)
			e.fire(a, triggerFail)
			return
		}
		if a.State() != StateRunning {
			return
		}
		if !wait(ctx, a.period) {
			return
		}
	}
}

// awaitDependencies blocks until none of a's after automations is
// running. Returns false if ctx is cancelled first.
func (e *Engine) awaitDependencies(ctx context.Context, a *Automation) bool {
	for {
		var waitingOn []string
		for _, dep := range a.after {
			if dep.State() == StateRunning {
				waitingOn = append(waitingOn, dep.name)
			}
		}
		if len(waitingOn) == 0 {
			return true
		}

		e.logger.Debug("waiting for dependent automations",
			"automation", a.name,
			"waiting_on", waitingOn,
		)
		if !wait(ctx, e.dependencyPoll) {
			return false
		}
	}
}

// cycle runs one evaluation. Panics are returned as errors.
func (e *Engine) cycle(ctx context.Context, a *Automation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in automation cycle",
				"automation", a.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	triggered, diag, evalErr := a.evaluate(e.scope())
	if evalErr != nil {
		e.logger.Debug("condition evaluation failed", "automation", a.name, "error", evalErr)
		e.metrics.ConditionFailed(a.name)
	}

	if triggered {
		e.logger.Info("automation triggered", "automation", a.name, "condition", a.condition.String())
		if err := e.trigger(ctx, a); err != nil {
			return err
		}
	} else {
		e.logger.Debug(diag)
	}

	if a.checkOnce {
		a.Disable()
		e.fire(a, triggerFinish)
	}
	return nil
}

// trigger runs the automation's steps, or its legacy actions when it has no
// steps, then applies starts/stops.
func (e *Engine) trigger(ctx context.Context, a *Automation) error {
	runID := GenerateID()
	started := time.Now()
	e.metrics.AutomationTriggered(a.name)

	var steps int
	if len(a.steps) > 0 {
		r := &runner{
			automation: a.name,
			runID:      runID,
			entities:   e.entities,
			scope:      e.scope(),
			vars:       NewExecutionContext(),
			logger:     e.logger,
			metrics:    e.metrics,
			sleep:      e.sleep,
		}
		if err := r.run(ctx, a.steps); err != nil {
			return fmt.Errorf("running steps: %w", err)
		}
		steps = r.executed
	} else {
		n, err := e.triggerActions(ctx, a)
		if err != nil {
			return fmt.Errorf("publishing actions: %w", err)
		}
		steps = n
	}

	if !a.continuous {
		a.Disable()
	}
	for _, dep := range a.starts {
		dep.Enable()
	}
	for _, dep := range a.stops {
		dep.Disable()
	}

	elapsed := time.Since(started)
	e.logger.Info("automation run completed",
		"automation", a.name,
		"run_id", runID,
		"steps", steps,
		"duration_ms", elapsed.Milliseconds(),
	)
	if e.recorder != nil {
		e.recorder.RecordRun(a.name, runID, elapsed, steps)
	}
	if e.hub != nil {
		e.hub.Broadcast("automation.triggered", map[string]any{
			"automation":  a.name,
			"run_id":      runID,
			"steps":       steps,
			"duration_ms": elapsed.Milliseconds(),
		})
	}
	return nil
}

// fire applies a lifecycle trigger to a and reports the state change.
// It returns false if the trigger is not permitted from a's state.
func (e *Engine) fire(a *Automation, trigger string) bool {
	prev, s, err := a.lifecycle.fire(a, trigger)
	if err != nil {
		e.logger.Warn("automation state change refused", "automation", a.name, "error", err)
		return false
	}
	if prev == s {
		return true
	}

	e.metrics.AutomationStateChanged(a.name, s)
	e.logger.Info("automation state changed",
		"automation", a.name,
		"from", prev.String(),
		"to", s.String(),
	)
	if e.hub != nil {
		e.hub.Broadcast("automation.state_changed", map[string]any{
			"automation": a.name,
			"from":       prev.String(),
			"state":      s.String(),
		})
	}
	return true
}

func (e *Engine) scope() scope.Scope {
	return scope.Scope{Entities: e.entities, Rest: e.values}
}

// wait sleeps for d or until ctx is done. Returns false on cancellation.
func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
