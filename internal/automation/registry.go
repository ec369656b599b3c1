package automation

import (
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry and Engine.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds automations by name in model order.
//
// All public methods are thread-safe.
type Registry struct {
	mu     sync.RWMutex
	order  []*Automation
	byName map[string]*Automation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Automation)}
}

// Add registers a. Names must be unique.
func (r *Registry) Add(a *Automation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[a.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAutomation, a.name)
	}
	r.byName[a.name] = a
	r.order = append(r.order, a)
	return nil
}

// Get returns the automation called name.
func (r *Registry) Get(name string) (*Automation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAutomationNotFound, name)
	}
	return a, nil
}

// List returns all automations in the order they were added.
func (r *Registry) List() []*Automation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Automation, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered automations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Resolve binds every after/starts/stops name to its automation.
// It fails on the first name that is not registered.
func (r *Registry) Resolve() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.order {
		var err error
		if a.after, err = r.lookup(a, "after", a.afterNames); err != nil {
			return err
		}
		if a.starts, err = r.lookup(a, "starts", a.startsNames); err != nil {
			return err
		}
		if a.stops, err = r.lookup(a, "stops", a.stopsNames); err != nil {
			return err
		}
	}
	return nil
}

// lookup resolves names for one relation. Caller holds the lock.
func (r *Registry) lookup(a *Automation, relation string, names []string) ([]*Automation, error) {
	out := make([]*Automation, 0, len(names))
	for _, n := range names {
		dep, ok := r.byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s %s %q", ErrUnknownDependency, a.name, relation, n)
		}
		out = append(out, dep)
	}
	return out, nil
}
