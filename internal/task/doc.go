// Package task holds the concurrency building blocks used by item processing:
// a mutex-guarded Accumulator for collecting results from many goroutines, a
// Future for awaiting a computation started elsewhere, and the RunRunner that
// executes persisted processing runs on a bounded queue of background workers.
package task
