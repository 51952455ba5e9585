package task

import "sync"

// Accumulator is a slice that tolerates concurrent Add calls.
// The zero value is ready to use.
type Accumulator[T any] struct {
	mu    sync.Mutex
	items []T
}

// Add appends v.
func (a *Accumulator[T]) Add(v T) {
	a.mu.Lock()
	a.items = append(a.items, v)
	a.mu.Unlock()
}

// Len returns the number of values added so far.
func (a *Accumulator[T]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Snapshot returns a copy of the values added so far. The result is never nil.
func (a *Accumulator[T]) Snapshot() []T {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}
