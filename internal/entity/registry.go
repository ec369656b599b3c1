package entity

import (
	"fmt"
	"sync"
)

// Registry indexes entities by name.
//
// Thread Safety: All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Add registers e. Names must be unique.
func (r *Registry) Add(e *Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[e.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntity, e.Name())
	}
	r.entities[e.Name()] = e
	r.order = append(r.order, e.Name())
	return nil
}

// Get returns the entity called name.
func (r *Registry) Get(name string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[name]
	return e, ok
}

// List returns all entities in registration order.
func (r *Registry) List() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entities[name])
	}
	return out
}

// Buffer returns the shared ring buffer for (entity, attribute, size).
func (r *Registry) Buffer(entityName, attribute string, size int) (*Buffer, error) {
	e, ok := r.Get(entityName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, entityName)
	}
	return e.Buffer(attribute, size)
}

// SetPublisher attaches p to every registered entity.
func (r *Registry) SetPublisher(p Publisher) {
	for _, e := range r.List() {
		e.SetPublisher(p)
	}
}
