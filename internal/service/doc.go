// Package service contains the application use cases for items. It
// coordinates domain objects and the store interfaces defined in
// internal/store, and never depends on a concrete storage implementation.
//
// ItemService covers single-item lookups and changes. ItemProcessor marks
// every stored item as processed, fanning the work out over a bounded pool of
// goroutines and reporting per-item failures together once all work is done.
package service
