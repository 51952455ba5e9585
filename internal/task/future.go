package task

import (
	"context"
	"fmt"
)

// Future is the eventual result of a function running in its own goroutine.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts fn in a new goroutine and returns a Future for its result.
// A panic in fn is recovered and reported as the Future's error.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("task panicked: %v", r)
			}
		}()

		f.value, f.err = fn(ctx)
	}()

	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx ends. Giving up on the
// wait does not stop the underlying computation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
