package log

import (
	"fmt"
	"io"
	"slices"
	"sync"
)

// CircularBuffer is a thread-safe ring of recent log entries implementing
// [io.Writer]. Once full, each write evicts the oldest entry.
//
// rat points slog at one of these while a launched tool owns the
// terminal, then flushes the retained entries to stderr afterwards.
type CircularBuffer struct {
	entries  [][]byte
	size     int
	capacity int
	head     int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a circular buffer holding up to capacity
// entries. Non-positive capacities fall back to 100.
func NewCircularBuffer(capacity int) *CircularBuffer {
	if capacity <= 0 {
		capacity = 100
	}

	return &CircularBuffer{
		entries:  make([][]byte, capacity),
		capacity: capacity,
	}
}

// Write implements [io.Writer]. Each call stores one entry, overwriting
// the oldest entry once the buffer is full. The data is copied so later
// mutation of p cannot corrupt stored entries.
func (cb *CircularBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.entries[cb.head] = slices.Clone(p)
	cb.head = (cb.head + 1) % cb.capacity

	if cb.size < cb.capacity {
		cb.size++
	}

	return len(p), nil
}

// Entries returns a copy of all current entries in chronological order,
// oldest first. The returned slices are safe to modify.
func (cb *CircularBuffer) Entries() [][]byte {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.size == 0 {
		return nil
	}

	// Before the first wrap the oldest entry sits at index zero,
	// afterwards it sits at head.
	start := 0
	if cb.size == cb.capacity {
		start = cb.head
	}

	result := make([][]byte, 0, cb.size)
	for i := range cb.size {
		result = append(result, slices.Clone(cb.entries[(start+i)%cb.capacity]))
	}

	return result
}

// Size returns the current number of entries in the buffer.
func (cb *CircularBuffer) Size() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.size
}

// Capacity returns the maximum number of entries the buffer can hold.
func (cb *CircularBuffer) Capacity() int {
	return cb.capacity
}

// IsFull returns true once writes have started evicting old entries.
func (cb *CircularBuffer) IsFull() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.size == cb.capacity
}

// Clear removes all entries from the buffer.
func (cb *CircularBuffer) Clear() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.size = 0
	cb.head = 0

	for i := range cb.entries {
		cb.entries[i] = nil
	}
}

// WriteTo flushes all current entries to w in chronological order.
// It implements [io.WriterTo].
func (cb *CircularBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for _, entry := range cb.Entries() {
		written, err := w.Write(entry)
		total += int64(written)

		if err != nil {
			return total, fmt.Errorf("writing entry: %w", err)
		}
	}

	return total, nil
}
