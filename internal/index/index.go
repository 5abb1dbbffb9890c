// Package index maintains per-field equality indexes over record positions.
package index

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/value"
)

// ErrUnknownField is returned when an indexed field has no accessor.
var ErrUnknownField = errors.New("unknown field")

// Resolver returns the accessor for a field name.
type Resolver[T any] func(field string) (value.Accessor[T], bool)

// Manager keeps one inverted index per configured field.
//
// Structure: field -> value key -> bitmap of positions. Roaring bitmaps are
// ordered, compressed and support fast AND/OR.
//
// Absent values (value.KindInvalid) are not indexed. Manager is not safe
// for concurrent mutation.
type Manager[T any] struct {
	fields    []string
	accessors map[string]value.Accessor[T]
	buckets   map[string]map[string]*roaring.Bitmap
}

// New creates an empty Manager for the given fields. Duplicate field names
// are collapsed.
func New[T any](resolve Resolver[T], fields ...string) (*Manager[T], error) {
	m := &Manager[T]{
		accessors: make(map[string]value.Accessor[T], len(fields)),
		buckets:   make(map[string]map[string]*roaring.Bitmap, len(fields)),
	}

	for _, field := range fields {
		if _, dup := m.accessors[field]; dup {
			continue
		}
		acc, ok := resolve(field)
		if !ok || acc == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		m.fields = append(m.fields, field)
		m.accessors[field] = acc
		m.buckets[field] = make(map[string]*roaring.Bitmap)
	}
	return m, nil
}

// Build indexes every record in one pass.
func (m *Manager[T]) Build(records iter.Seq2[uint32, T]) {
	for pos, rec := range records {
		m.Add(pos, &rec)
	}
}

// Add indexes rec at pos.
func (m *Manager[T]) Add(pos uint32, rec *T) {
	for _, field := range m.fields {
		m.addLocked(field, m.accessors[field](rec), pos)
	}
}

// Remove drops pos from every bucket rec's values live in.
func (m *Manager[T]) Remove(pos uint32, rec *T) {
	for _, field := range m.fields {
		m.removeLocked(field, m.accessors[field](rec), pos)
	}
}

// Reindex moves pos between buckets for each indexed field whose value
// differs between old and updated. It returns the number of fields moved.
func (m *Manager[T]) Reindex(pos uint32, old, updated *T) int {
	moved := 0
	for _, field := range m.fields {
		acc := m.accessors[field]
		before, after := acc(old), acc(updated)
		if before.Key() == after.Key() {
			continue
		}
		m.removeLocked(field, before, pos)
		m.addLocked(field, after, pos)
		moved++
	}
	return moved
}

// Lookup returns the positions holding v in field. ok is false when field
// is not indexed; callers must fall back to a scan. The returned bitmap is
// shared and must not be modified.
func (m *Manager[T]) Lookup(field string, v value.Value) (*roaring.Bitmap, bool) {
	values, ok := m.buckets[field]
	if !ok {
		return nil, false
	}
	if bm, ok := values[v.Key()]; ok {
		return bm, true
	}
	return empty, true
}

// Indexed reports whether field has an index.
func (m *Manager[T]) Indexed(field string) bool {
	_, ok := m.buckets[field]
	return ok
}

// Fields returns the indexed field names in configuration order.
func (m *Manager[T]) Fields() []string {
	return slices.Clone(m.fields)
}

// Cardinality returns the number of distinct values indexed for field.
func (m *Manager[T]) Cardinality(field string) int {
	return len(m.buckets[field])
}

// BucketCount returns the number of buckets across all fields.
func (m *Manager[T]) BucketCount() int {
	n := 0
	for _, values := range m.buckets {
		n += len(values)
	}
	return n
}

// SizeInBytes approximates the memory held by all buckets.
func (m *Manager[T]) SizeInBytes() uint64 {
	var total uint64
	for _, values := range m.buckets {
		for key, bm := range values {
			total += uint64(len(key)) + bm.GetSizeInBytes()
		}
	}
	return total
}

// empty is returned for values that have no bucket. Never modified.
var empty = roaring.New()

func (m *Manager[T]) addLocked(field string, v value.Value, pos uint32) {
	if !v.IsValid() {
		return
	}
	values := m.buckets[field]
	key := v.Key()
	bm, ok := values[key]
	if !ok {
		bm = roaring.New()
		values[key] = bm
	}
	bm.Add(pos)
}

func (m *Manager[T]) removeLocked(field string, v value.Value, pos uint32) {
	if !v.IsValid() {
		return
	}
	values := m.buckets[field]
	key := v.Key()
	bm, ok := values[key]
	if !ok {
		return
	}
	bm.Remove(pos)

	// Clean up empty bitmaps
	if bm.IsEmpty() {
		delete(values, key)
	}
}
