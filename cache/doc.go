// Package cache memoizes query results by canonical query hash.
//
// Entries expire after a fixed TTL and are checked lazily on lookup; there
// is no background sweep. When full, the least recently used entry is
// evicted. Purge drops everything and is called on every mutation.
//
// Concurrent misses for the same hash are collapsed so the query runs once.
package cache
