package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/recgo/query"
)

// ComputeFunc produces the result for a cache miss.
type ComputeFunc[T any] func(ctx context.Context) (query.Result[T], error)

// QueryCache is a TTL- and capacity-bounded result cache.
// It is safe for concurrent use. A nil *QueryCache caches nothing.
type QueryCache[T any] struct {
	mu  sync.Mutex // serializes writes to lru
	lru *lru.Cache[string, *Entry[T]]
	cfg Config[T]

	group singleflight.Group
	gen   atomic.Uint64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	expired   atomic.Uint64
	purges    atomic.Uint64
}

// New creates a QueryCache. A capacity <= 0 returns a disabled cache.
func New[T any](cfg Config[T]) *QueryCache[T] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &QueryCache[T]{cfg: cfg}
	if cfg.Capacity > 0 {
		// Only fails for non-positive sizes.
		c.lru, _ = lru.New[string, *Entry[T]](cfg.Capacity)
	}
	return c
}

// Enabled reports whether the cache stores anything.
func (c *QueryCache[T]) Enabled() bool {
	return c != nil && c.lru != nil
}

// Get returns a copy of the cached result for hash, marked Cached with a
// zero execution time. Expired entries are removed and reported as misses.
func (c *QueryCache[T]) Get(hash string) (query.Result[T], bool) {
	if !c.Enabled() {
		return query.Result[T]{}, false
	}

	e, ok := c.lru.Get(hash)
	if !ok {
		c.misses.Add(1)
		return query.Result[T]{}, false
	}

	now := c.cfg.Now()
	if c.cfg.TTL > 0 && now.Sub(e.CreatedAt) >= c.cfg.TTL {
		c.removeEntry(hash, e)
		c.expired.Add(1)
		c.misses.Add(1)
		return query.Result[T]{}, false
	}

	e.touch(now)
	c.hits.Add(1)

	res := c.copyOut(e.Result)
	res.Cached = true
	res.ExecutionTime = 0
	return res, true
}

// Peek returns the entry for hash without touching it or its recency.
func (c *QueryCache[T]) Peek(hash string) (*Entry[T], bool) {
	if !c.Enabled() {
		return nil, false
	}
	return c.lru.Peek(hash)
}

// Put stores res under hash, evicting the least recently used entry if full.
func (c *QueryCache[T]) Put(hash string, res query.Result[T]) {
	if !c.Enabled() {
		return
	}
	c.put(hash, res, c.gen.Load())
}

func (c *QueryCache[T]) put(hash string, res query.Result[T], gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A purge happened while res was computed; it may be stale.
	if c.gen.Load() != gen {
		return
	}

	now := c.cfg.Now()
	res.Cached = false
	e := &Entry[T]{Hash: hash, Result: res, CreatedAt: now}
	e.lastAccess.Store(now.UnixNano())

	if evicted := c.lru.Add(hash, e); evicted {
		c.evictions.Add(1)
	}
}

// removeEntry drops e if it is still the entry stored under hash. A fresh
// result put after e was read stays.
func (c *QueryCache[T]) removeEntry(hash string, e *Entry[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.lru.Peek(hash); ok && cur == e {
		c.lru.Remove(hash)
	}
}

// GetOrCompute returns the cached result for hash or runs compute and
// caches what it returns. Errors are not cached. Concurrent callers with
// the same hash share one compute call and observe its context.
func (c *QueryCache[T]) GetOrCompute(ctx context.Context, hash string, compute ComputeFunc[T]) (query.Result[T], error) {
	if !c.Enabled() {
		return compute(ctx)
	}

	if res, ok := c.Get(hash); ok {
		return res, nil
	}

	gen := c.gen.Load()
	v, err, _ := c.group.Do(hash, func() (any, error) {
		res, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.put(hash, res, gen)
		return res, nil
	})
	if err != nil {
		return query.Result[T]{}, err
	}

	// The computed result is shared with the cache and other callers.
	return c.copyOut(v.(query.Result[T])), nil
}

// Purge drops every entry. Results being computed concurrently are not
// stored.
func (c *QueryCache[T]) Purge() {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen.Add(1)
	c.lru.Purge()
	c.purges.Add(1)
}

// Len returns the number of entries, expired ones included.
func (c *QueryCache[T]) Len() int {
	if !c.Enabled() {
		return 0
	}
	return c.lru.Len()
}

// Stats returns a snapshot of the cache statistics.
func (c *QueryCache[T]) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Size:      c.Len(),
		Capacity:  max(c.cfg.Capacity, 0),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Expired:   c.expired.Load(),
		Purges:    c.purges.Load(),
	}
}

func (c *QueryCache[T]) copyOut(res query.Result[T]) query.Result[T] {
	data := make([]T, len(res.Data))
	for i, rec := range res.Data {
		if c.cfg.Clone != nil {
			rec = c.cfg.Clone(rec)
		}
		data[i] = rec
	}
	res.Data = data
	return res
}
