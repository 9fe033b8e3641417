// Package poll implements the single-resource polling engine used by
// sourcewatch.
//
// The engine owns the timer loop, the monotonic attempt counter, the
// cancellation flag, and the single-delivery outcome channel. All state
// transitions (deliver, discard, stop) pass through one mutex so that a
// fetch result arriving concurrently with Stop is always either delivered
// exactly once or discarded silently, never both.
//
// This package is not part of the public API and may change without notice.
package poll
