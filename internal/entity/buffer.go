package entity

import "sync"

// Buffer is a fixed-capacity ring of recent attribute values. Once full,
// each push overwrites the oldest value.
//
// Thread Safety: All methods are safe for concurrent use.
type Buffer struct {
	mu    sync.RWMutex
	data  []any
	start int
	count int
}

// NewBuffer creates an empty buffer holding at most size values.
func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]any, size)}
}

// Push appends v, evicting the oldest value when the buffer is full.
func (b *Buffer) Push(v any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.data)
	if size == 0 {
		return
	}
	if b.count < size {
		b.data[(b.start+b.count)%size] = v
		b.count++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % size
}

// Values returns a copy of the buffered values, oldest first.
func (b *Buffer) Values() []any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]any, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(b.start+i)%len(b.data)]
	}
	return out
}

// Len returns the number of buffered values.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}
