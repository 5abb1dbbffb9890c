package recgo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/hupe1980/recgo/cache"
	"github.com/hupe1980/recgo/internal/exec"
	"github.com/hupe1980/recgo/internal/index"
	"github.com/hupe1980/recgo/internal/recstore"
	"github.com/hupe1980/recgo/query"
	"github.com/hupe1980/recgo/value"
)

// Store is an in-memory, indexed record collection.
//
// Queries run concurrently under a read lock. Mutations take the write
// lock, keep every index consistent and purge the query cache before they
// return.
type Store[T any] struct {
	mu sync.RWMutex

	schema  Schema[T]
	pk      value.Accessor[T]
	fields  []string
	records *recstore.Store[T]
	index   *index.Manager[T]
	exec    *exec.Executor[T]
	cache   *cache.QueryCache[T]
	version uint64 // bumped by every mutation

	opts    options
	metrics MetricsCollector
	logger  *Logger
}

// Stats is a snapshot of store statistics.
type Stats struct {
	// RecordCount is the number of live records.
	RecordCount int
	// IndexCount is the number of indexed fields, primary key included.
	IndexCount int
	// CacheSize is the number of cached query results.
	CacheSize int
	// ApproximateMemoryBytes estimates the memory held by records and
	// indexes. Memory referenced from inside records is not counted.
	ApproximateMemoryBytes uint64
	// Tombstones is the number of deleted positions not yet compacted.
	Tombstones int
	// Cache holds the query cache statistics.
	Cache cache.Stats
}

// New creates a Store holding records.
//
// Records are cloned on the way in. Duplicate or missing primary keys fail
// with ErrDuplicateKey or ErrMissingKey.
func New[T any](records []T, schema Schema[T], optFns ...Option) (*Store[T], error) {
	if err := schema.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(optFns)

	pk, _ := schema.Resolve(schema.PrimaryKey)
	fields := append([]string{schema.PrimaryKey}, o.indexedFields...)

	s := &Store[T]{
		schema:  schema,
		pk:      pk,
		opts:    o,
		metrics: o.metricsCollector,
		logger:  o.logger,
	}

	idx, err := index.New(schema.Resolve, fields...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	s.fields = idx.Fields()
	s.index = idx
	s.records = recstore.New[T](len(records))

	for i := range records {
		if _, err := s.appendLocked(records[i]); err != nil {
			var ke *KeyError
			if errors.As(err, &ke) {
				ke.Op = "new"
			}
			return nil, err
		}
	}

	switch qc := o.queryCache.(type) {
	case nil:
		s.cache = cache.New(cache.Config[T]{
			Capacity: o.cacheCapacity,
			TTL:      o.cacheTTL,
			Clone:    schema.Clone,
			Now:      o.now,
		})
	case *cache.QueryCache[T]:
		s.cache = qc
		s.cache.Purge()
	default:
		return nil, fmt.Errorf("%w: query cache holds %T, not %T", ErrInvalidSchema, qc, s.cache)
	}

	s.exec = s.newExecutor()
	return s, nil
}

func (s *Store[T]) newExecutor() *exec.Executor[T] {
	return exec.New(s.records, s.index, exec.Config[T]{
		Resolve:     s.schema.Resolve,
		Clone:       s.schema.Clone,
		ScanWorkers: s.opts.scanWorkers,
	})
}

// Query executes spec. Identical specs are answered from the query cache
// until the next mutation or until the entry expires.
func (s *Store[T]) Query(ctx context.Context, spec query.Spec) (query.Result[T], error) {
	start := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	hash := spec.Hash()
	res, err := s.cache.GetOrCompute(ctx, hash, func(ctx context.Context) (query.Result[T], error) {
		return s.exec.Execute(ctx, spec)
	})

	d := time.Since(start)
	s.metrics.RecordQuery(d, res.Cached, err)
	s.logger.LogQuery(ctx, hash, res.TotalCount, res.Cached, d, err)
	if err == nil && s.opts.slowQueryThreshold > 0 && d > s.opts.slowQueryThreshold {
		s.logger.LogSlowQuery(ctx, hash, d, s.opts.slowQueryThreshold)
	}

	return res, err
}

// Get returns a copy of the live record with the given primary key.
func (s *Store[T]) Get(key value.Value) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.lookupLocked(key)
	if !ok {
		var zero T
		return zero, false
	}
	return s.schema.clone(*s.records.Ref(pos)), true
}

// Insert adds rec. It fails with ErrDuplicateKey if a live record has the
// same primary key, leaving the store unchanged.
func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	start := time.Now()
	key := s.pk(&rec)

	err := s.insert(ctx, rec)

	s.metrics.RecordInsert(time.Since(start), err)
	s.logger.LogInsert(ctx, key, err)
	return err
}

func (s *Store[T]) insert(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.appendLocked(rec); err != nil {
		return err
	}
	s.version++
	s.cache.Purge()
	return nil
}

// appendLocked stores a clone of rec and indexes it.
func (s *Store[T]) appendLocked(rec T) (uint32, error) {
	key := s.pk(&rec)
	if !key.IsValid() {
		return 0, &KeyError{Op: "insert", Key: key, Err: ErrMissingKey}
	}
	if _, exists := s.lookupLocked(key); exists {
		return 0, &KeyError{Op: "insert", Key: key, Err: ErrDuplicateKey}
	}

	pos := s.records.Append(s.schema.clone(rec))
	s.index.Add(pos, s.records.Ref(pos))
	return pos, nil
}

// Update applies patch to a copy of the record with the given key and
// stores the copy. Only indexed fields whose values changed are reindexed.
// Changing the primary key fails with ErrImmutableKey.
//
// patch runs without holding the store lock, so it may read the store. If
// the store changes before the copy is stored, patch runs again on a fresh
// copy.
func (s *Store[T]) Update(ctx context.Context, key value.Value, patch func(*T)) error {
	start := time.Now()

	reindexed, err := s.update(ctx, key, patch)

	s.metrics.RecordUpdate(time.Since(start), err)
	s.logger.LogUpdate(ctx, key, reindexed, err)
	return err
}

func (s *Store[T]) update(ctx context.Context, key value.Value, patch func(*T)) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		s.mu.RLock()
		pos, ok := s.lookupLocked(key)
		if !ok {
			s.mu.RUnlock()
			return 0, &KeyError{Op: "update", Key: key, Err: ErrNotFound}
		}
		updated := s.schema.clone(*s.records.Ref(pos))
		version := s.version
		s.mu.RUnlock()

		if patch != nil {
			patch(&updated)
		}
		if !value.Equal(s.pk(&updated), key) {
			return 0, &KeyError{Op: "update", Key: key, Err: ErrImmutableKey}
		}

		reindexed, ok, err := s.commitUpdate(pos, version, &updated)
		if ok || err != nil {
			return reindexed, err
		}
	}
}

// commitUpdate stores updated at pos unless the store changed since version.
func (s *Store[T]) commitUpdate(pos uint32, version uint64, updated *T) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		return 0, false, nil
	}

	reindexed := s.index.Reindex(pos, s.records.Ref(pos), updated)
	if err := s.records.Set(pos, *updated); err != nil {
		return 0, false, err
	}
	s.version++
	s.cache.Purge()
	return reindexed, true, nil
}

// Delete removes the record with the given key.
func (s *Store[T]) Delete(ctx context.Context, key value.Value) error {
	start := time.Now()

	err := s.delete(ctx, key)

	s.metrics.RecordDelete(time.Since(start), err)
	s.logger.LogDelete(ctx, key, err)
	return err
}

func (s *Store[T]) delete(ctx context.Context, key value.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.lookupLocked(key)
	if !ok {
		return &KeyError{Op: "delete", Key: key, Err: ErrNotFound}
	}

	s.index.Remove(pos, s.records.Ref(pos))
	if err := s.records.Tombstone(pos); err != nil {
		return err
	}
	s.version++
	s.cache.Purge()

	if s.needsCompactionLocked() {
		s.compactLocked(ctx)
	}
	return nil
}

// Compact drops tombstones by rebuilding the record sequence and every
// index with fresh positions. It is a no-op without tombstones.
func (s *Store[T]) Compact(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records.Tombstones() > 0 {
		s.compactLocked(ctx)
	}
	return nil
}

func (s *Store[T]) needsCompactionLocked() bool {
	threshold := s.opts.compactionThreshold
	if threshold <= 0 || s.records.Len() == 0 {
		return false
	}
	return float64(s.records.Tombstones())/float64(s.records.Len()) > threshold
}

func (s *Store[T]) compactLocked(ctx context.Context) {
	start := time.Now()
	reclaimed := s.records.Tombstones()

	records := recstore.New[T](s.records.LiveCount())
	// Fields were validated when the store was created.
	idx, _ := index.New(s.schema.Resolve, s.fields...)

	for _, rec := range s.records.All() {
		pos := records.Append(rec)
		idx.Add(pos, records.Ref(pos))
	}

	s.records = records
	s.index = idx
	s.exec = s.newExecutor()
	s.version++
	s.cache.Purge()

	d := time.Since(start)
	s.metrics.RecordCompaction(reclaimed, d)
	s.logger.LogCompact(ctx, reclaimed, records.LiveCount(), d)
}

// Sample draws up to n distinct records matching filter, in an order fixed
// by seed. A nil filter samples from all records.
func (s *Store[T]) Sample(ctx context.Context, n int, filter map[string]value.Value, seed uint64) ([]T, error) {
	if n <= 0 {
		return []T{}, nil
	}
	res, err := s.Query(ctx, query.Spec{Filter: filter}.Shuffled(seed).Window(0, n))
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Len returns the number of live records.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.LiveCount()
}

// IndexedFields returns the indexed field names, primary key first.
func (s *Store[T]) IndexedFields() []string {
	return append([]string(nil), s.fields...)
}

// Stats returns a snapshot of store statistics.
func (s *Store[T]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	cs := s.cache.Stats()

	return Stats{
		RecordCount:            s.records.LiveCount(),
		IndexCount:             len(s.fields),
		CacheSize:              cs.Size,
		ApproximateMemoryBytes: s.records.SizeInBytes(unsafe.Sizeof(zero)) + s.index.SizeInBytes(),
		Tombstones:             s.records.Tombstones(),
		Cache:                  cs,
	}
}

// lookupLocked finds the position of the live record with key through the
// primary-key index.
func (s *Store[T]) lookupLocked(key value.Value) (uint32, bool) {
	if !key.IsValid() {
		return 0, false
	}
	bm, _ := s.index.Lookup(s.schema.PrimaryKey, key)
	if bm == nil || bm.IsEmpty() {
		return 0, false
	}
	return bm.Minimum(), true
}
