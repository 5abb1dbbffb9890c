package query

import "time"

// Result is the outcome of executing a Spec.
//
// Data is a snapshot: it does not alias store state and stays valid after
// later mutations.
type Result[T any] struct {
	Data []T
	// TotalCount is the number of matches before offset and limit.
	TotalCount int
	// HasMore reports whether matches remain past Offset+Limit.
	HasMore bool
	// ExecutionTime is zero when the result came from the cache.
	ExecutionTime time.Duration
	// Cached reports whether the result was served from the cache.
	Cached bool
}

// ExecutionTimeMs returns ExecutionTime in fractional milliseconds.
func (r Result[T]) ExecutionTimeMs() float64 {
	return float64(r.ExecutionTime) / float64(time.Millisecond)
}
