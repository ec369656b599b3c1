package entity

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

// Publisher delivers attribute updates to a physical or virtual device.
// The MQTT bus provides the production implementation.
type Publisher interface {
	Publish(ctx context.Context, entity string, msg map[string]any) error
}

type bufferKey struct {
	attribute string
	size      int
}

// Entity is a named device whose attributes are written by an external
// feed and read by conditions and expressions.
//
// Thread Safety: All methods are safe for concurrent use.
type Entity struct {
	name  string
	topic string

	mu        sync.RWMutex
	attrs     map[string]any
	buffers   map[bufferKey]*Buffer
	updatedAt time.Time
	publisher Publisher
}

// New creates an entity with optional initial attribute values.
func New(name, topic string, initial map[string]any) *Entity {
	attrs := make(map[string]any, len(initial))
	maps.Copy(attrs, initial)
	return &Entity{
		name:    name,
		topic:   topic,
		attrs:   attrs,
		buffers: make(map[bufferKey]*Buffer),
	}
}

// Name returns the entity name.
func (e *Entity) Name() string {
	return e.name
}

// Topic returns the transport topic configured for the entity, possibly empty.
func (e *Entity) Topic() string {
	return e.topic
}

// Attribute returns the current value of an attribute.
func (e *Entity) Attribute(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.attrs[name]
	return v, ok
}

// Attributes returns a copy of all attribute values.
func (e *Entity) Attributes() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.attrs)
}

// UpdatedAt returns when Update last ran, or the zero time.
func (e *Entity) UpdatedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.updatedAt
}

// Update stores new attribute values and appends each one to every buffer
// registered for that attribute.
func (e *Entity) Update(values map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for attr, v := range values {
		e.attrs[attr] = v
		for key, buf := range e.buffers {
			if key.attribute == attr {
				buf.Push(v)
			}
		}
	}
	e.updatedAt = time.Now()
}

// Buffer returns the ring buffer for (attribute, size), creating it on
// first use. Every caller asking for the same pair shares one buffer.
func (e *Entity) Buffer(attribute string, size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, size)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := bufferKey{attribute: attribute, size: size}
	if buf, ok := e.buffers[key]; ok {
		return buf, nil
	}
	buf := NewBuffer(size)
	e.buffers[key] = buf
	return buf, nil
}

// SetPublisher attaches the transport used by Publish.
func (e *Entity) SetPublisher(p Publisher) {
	e.mu.Lock()
	e.publisher = p
	e.mu.Unlock()
}

// Publish sends msg (attribute name to value) through the entity's publisher.
// Local attribute values are not changed; they follow the state feed.
func (e *Entity) Publish(ctx context.Context, msg map[string]any) error {
	e.mu.RLock()
	p := e.publisher
	e.mu.RUnlock()

	if p == nil {
		return fmt.Errorf("%w: %s", ErrNoPublisher, e.name)
	}
	if err := p.Publish(ctx, e.name, msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", e.name, err)
	}
	return nil
}
