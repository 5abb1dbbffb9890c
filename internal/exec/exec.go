// Package exec turns a query.Spec into a query.Result over a record store.
package exec

import (
	"context"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/internal/index"
	"github.com/hupe1980/recgo/internal/recstore"
	"github.com/hupe1980/recgo/query"
	"github.com/hupe1980/recgo/value"
)

// Config tunes the executor.
type Config[T any] struct {
	// Resolve maps field names to accessors. Unknown filter fields match
	// nothing; unknown sort fields compare equal.
	Resolve index.Resolver[T]

	// Clone copies records on the way out. If nil, records are copied by value.
	Clone func(T) T

	// ScanWorkers bounds the goroutines used by linear scans.
	// Values <= 1 scan sequentially.
	ScanWorkers int

	// ScanChunkSize is the number of candidates per scan task.
	// Scans over fewer candidates run sequentially. Default: 8192.
	ScanChunkSize int
}

// DefaultScanChunkSize is the candidate count per parallel scan task.
const DefaultScanChunkSize = 8192

// Executor runs queries. It only reads the store and index; callers must
// prevent concurrent mutation while Execute runs.
type Executor[T any] struct {
	store *recstore.Store[T]
	index *index.Manager[T]
	cfg   Config[T]
}

// New creates an Executor.
func New[T any](store *recstore.Store[T], idx *index.Manager[T], cfg Config[T]) *Executor[T] {
	if cfg.ScanChunkSize <= 0 {
		cfg.ScanChunkSize = DefaultScanChunkSize
	}
	return &Executor[T]{store: store, index: idx, cfg: cfg}
}

// Execute filters, searches, orders and paginates.
func (e *Executor[T]) Execute(ctx context.Context, spec query.Spec) (query.Result[T], error) {
	start := time.Now()

	candidates, err := e.filter(ctx, spec.Filter)
	if err != nil {
		return query.Result[T]{}, err
	}

	if spec.Search != nil && !candidates.IsEmpty() {
		candidates, err = e.search(ctx, candidates, spec.Search)
		if err != nil {
			return query.Result[T]{}, err
		}
	}

	positions := candidates.ToArray()
	total := len(positions)

	switch {
	case spec.Shuffle != nil:
		shuffle(positions, spec.Shuffle.Seed)
	case len(spec.Sort) > 0:
		e.sort(positions, spec.Sort)
	}

	offset := max(spec.Offset, 0)
	limit := max(spec.Limit, 0)

	window := paginate(positions, offset, limit)
	data := make([]T, 0, len(window))
	for _, pos := range window {
		rec := e.store.Ref(pos)
		if rec == nil {
			continue
		}
		data = append(data, e.copy(*rec))
	}

	return query.Result[T]{
		Data:          data,
		TotalCount:    total,
		HasMore:       limit > 0 && offset < total && limit < total-offset,
		ExecutionTime: time.Since(start),
	}, nil
}

// filter intersects the live set with every filter pair. Indexed fields go
// first so scans only visit what survived them.
func (e *Executor[T]) filter(ctx context.Context, filter map[string]value.Value) (*roaring.Bitmap, error) {
	candidates := e.store.Live()
	if len(filter) == 0 {
		return candidates, nil
	}

	fields := slices.SortedFunc(maps.Keys(filter), func(a, b string) int {
		if ia, ib := e.index.Indexed(a), e.index.Indexed(b); ia != ib {
			if ia {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})

	for _, field := range fields {
		want := filter[field]

		if !want.IsValid() {
			return roaring.New(), nil
		}

		if bm, ok := e.index.Lookup(field, want); ok {
			candidates.And(bm)
		} else {
			acc, ok := e.cfg.Resolve(field)
			if !ok {
				return roaring.New(), nil
			}
			key := want.Key()
			var err error
			candidates, err = e.scan(ctx, candidates, func(rec *T) bool {
				return acc(rec).Key() == key
			})
			if err != nil {
				return nil, err
			}
		}

		if candidates.IsEmpty() {
			break
		}
	}
	return candidates, nil
}

// search keeps candidates where every word occurs in at least one field.
func (e *Executor[T]) search(ctx context.Context, candidates *roaring.Bitmap, s *query.Search) (*roaring.Bitmap, error) {
	words := query.Words(s.Term)
	if len(words) == 0 {
		return candidates, nil
	}

	accessors := make([]value.Accessor[T], 0, len(s.Fields))
	for _, field := range s.Fields {
		if acc, ok := e.cfg.Resolve(field); ok {
			accessors = append(accessors, acc)
		}
	}
	if len(accessors) == 0 {
		return roaring.New(), nil
	}

	return e.scan(ctx, candidates, func(rec *T) bool {
		texts := make([]string, len(accessors))
		for i, acc := range accessors {
			texts[i] = query.Fold(acc(rec).Text())
		}
		for _, w := range words {
			found := false
			for _, text := range texts {
				if strings.Contains(text, w) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	})
}

func (e *Executor[T]) sort(positions []uint32, keys []query.SortKey) {
	type sortField struct {
		acc  value.Accessor[T]
		sign int
	}

	fields := make([]sortField, 0, len(keys))
	for _, k := range keys {
		acc, ok := e.cfg.Resolve(k.Field)
		if !ok {
			continue
		}
		sign := 1
		if k.Direction == query.Descending {
			sign = -1
		}
		fields = append(fields, sortField{acc: acc, sign: sign})
	}
	if len(fields) == 0 {
		return
	}

	slices.SortStableFunc(positions, func(a, b uint32) int {
		ra, rb := e.store.Ref(a), e.store.Ref(b)
		for _, f := range fields {
			if c := value.Compare(f.acc(ra), f.acc(rb)); c != 0 {
				return c * f.sign
			}
		}
		return 0
	})
}

func (e *Executor[T]) copy(rec T) T {
	if e.cfg.Clone != nil {
		return e.cfg.Clone(rec)
	}
	return rec
}

// shuffle permutes positions deterministically for a seed.
func shuffle(positions []uint32, seed uint64) {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(positions), func(i, j int) {
		positions[i], positions[j] = positions[j], positions[i]
	})
}

func paginate(positions []uint32, offset, limit int) []uint32 {
	if offset >= len(positions) {
		return nil
	}
	end := len(positions)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return positions[offset:end]
}
