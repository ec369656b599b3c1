package rest

import (
	"sync"
	"time"
)

type storeKey struct {
	source string
	field  string
}

type storeEntry struct {
	value     any
	updatedAt time.Time
}

// Store holds the most recent value of every (source, field) pair together
// with the time it was written.
//
// Entries are only ever overwritten. A key that was never written reads as
// absent, which is distinct from a fetched nil value.
//
// Thread Safety: All methods are safe for concurrent use. Each key is read
// atomically; there is no consistency guarantee across keys.
type Store struct {
	mu      sync.RWMutex
	entries map[storeKey]storeEntry
	now     func() time.Time
}

// NewStore creates an empty value store.
func NewStore() *Store {
	return &Store{
		entries: make(map[storeKey]storeEntry),
		now:     time.Now,
	}
}

// Set records value for (source, field), stamped with the current time.
func (s *Store) Set(source, field string, value any) {
	s.mu.Lock()
	s.entries[storeKey{source, field}] = storeEntry{value: value, updatedAt: s.now()}
	s.mu.Unlock()
}

// SetAll records every field of one fetch under a single timestamp.
func (s *Store) SetAll(source string, values map[string]any) {
	now := s.now()
	s.mu.Lock()
	for field, v := range values {
		s.entries[storeKey{source, field}] = storeEntry{value: v, updatedAt: now}
	}
	s.mu.Unlock()
}

// Get returns the last value written for (source, field). The boolean is
// false if the key was never fetched.
func (s *Store) Get(source, field string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[storeKey{source, field}]
	s.mu.RUnlock()
	return e.value, ok
}

// Age returns how long ago (source, field) was written. The boolean is
// false if the key was never fetched.
func (s *Store) Age(source, field string) (time.Duration, bool) {
	s.mu.RLock()
	e, ok := s.entries[storeKey{source, field}]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return s.now().Sub(e.updatedAt), true
}

// Snapshot copies the current values, grouped by source.
func (s *Store) Snapshot() map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]any)
	for k, e := range s.entries {
		fields, ok := out[k.source]
		if !ok {
			fields = make(map[string]any)
			out[k.source] = fields
		}
		fields[k.field] = e.value
	}
	return out
}
