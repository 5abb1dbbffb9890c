package cache

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/recgo/query"
)

const (
	// DefaultCapacity is the default maximum number of cached results.
	DefaultCapacity = 100
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 5 * time.Minute
)

// Config configures a QueryCache.
type Config[T any] struct {
	// Capacity is the maximum number of cached results.
	// Capacity <= 0 disables caching.
	Capacity int

	// TTL is how long an entry is served after it was stored.
	// TTL <= 0 means entries never expire.
	TTL time.Duration

	// Clone copies one record of a result handed out to a caller.
	// If nil, records are copied by value.
	Clone func(T) T

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// DefaultConfig returns the default configuration.
func DefaultConfig[T any]() Config[T] {
	return Config[T]{
		Capacity: DefaultCapacity,
		TTL:      DefaultTTL,
	}
}

// Entry is a cached query result.
type Entry[T any] struct {
	// Hash is the canonical hash of the query that produced Result.
	Hash string
	// Result is the stored result. Never handed out directly.
	Result query.Result[T]
	// CreatedAt is when the entry was stored.
	CreatedAt time.Time

	accessCount atomic.Uint64
	lastAccess  atomic.Int64 // unix nanos
}

// AccessCount returns how often the entry was served.
func (e *Entry[T]) AccessCount() uint64 { return e.accessCount.Load() }

// LastAccess returns when the entry was last served or stored.
func (e *Entry[T]) LastAccess() time.Time { return time.Unix(0, e.lastAccess.Load()) }

func (e *Entry[T]) touch(now time.Time) {
	e.accessCount.Add(1)
	e.lastAccess.Store(now.UnixNano())
}

// Stats holds cache statistics.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Expired   uint64
	Purges    uint64
}

// HitRate returns hits / (hits + misses), or 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
