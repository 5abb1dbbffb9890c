// Package recstore holds the backing sequence of records, tombstones included.
package recstore

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"
)

// ErrIndexOutOfBounds is returned for positions that are past the end of the
// sequence or tombstoned.
var ErrIndexOutOfBounds = errors.New("index out of bounds")

// Store is an append-only sequence of records. Positions are stable and
// never reused; deleted positions become tombstones.
//
// Store is not safe for concurrent mutation. Concurrent reads are safe.
type Store[T any] struct {
	records []T
	dead    *bitset.BitSet
	nDead   int
}

// New creates a Store with room for capacity records.
func New[T any](capacity int) *Store[T] {
	return &Store[T]{
		records: make([]T, 0, capacity),
		dead:    bitset.New(uint(capacity)),
	}
}

// Append adds rec and returns its position.
func (s *Store[T]) Append(rec T) uint32 {
	if uint64(len(s.records)) >= math.MaxUint32 {
		panic("recstore: position space exhausted")
	}
	pos := uint32(len(s.records))
	s.records = append(s.records, rec)
	return pos
}

// Get returns the record at pos.
func (s *Store[T]) Get(pos uint32) (T, error) {
	if !s.IsLive(pos) {
		var zero T
		return zero, fmt.Errorf("%w: position %d", ErrIndexOutOfBounds, pos)
	}
	return s.records[pos], nil
}

// Ref returns a pointer to the live record at pos, or nil.
// The pointer is only valid until the next mutation.
func (s *Store[T]) Ref(pos uint32) *T {
	if !s.IsLive(pos) {
		return nil
	}
	return &s.records[pos]
}

// Set replaces the live record at pos.
func (s *Store[T]) Set(pos uint32, rec T) error {
	if !s.IsLive(pos) {
		return fmt.Errorf("%w: position %d", ErrIndexOutOfBounds, pos)
	}
	s.records[pos] = rec
	return nil
}

// Tombstone marks pos deleted and releases the record it held.
func (s *Store[T]) Tombstone(pos uint32) error {
	if !s.IsLive(pos) {
		return fmt.Errorf("%w: position %d", ErrIndexOutOfBounds, pos)
	}
	var zero T
	s.records[pos] = zero
	s.dead.Set(uint(pos))
	s.nDead++
	return nil
}

// IsLive reports whether pos holds a record.
func (s *Store[T]) IsLive(pos uint32) bool {
	return int(pos) < len(s.records) && !s.dead.Test(uint(pos))
}

// Len returns the length of the sequence, tombstones included.
func (s *Store[T]) Len() int { return len(s.records) }

// LiveCount returns the number of live records.
func (s *Store[T]) LiveCount() int { return len(s.records) - s.nDead }

// Tombstones returns the number of tombstoned positions.
func (s *Store[T]) Tombstones() int { return s.nDead }

// Live returns a fresh bitmap of all live positions. The caller owns it.
func (s *Store[T]) Live() *roaring.Bitmap {
	bm := roaring.New()
	bm.AddRange(0, uint64(len(s.records)))
	if s.nDead > 0 {
		for i, ok := s.dead.NextSet(0); ok; i, ok = s.dead.NextSet(i + 1) {
			bm.Remove(uint32(i))
		}
	}
	return bm
}

// All iterates over live records in position order.
func (s *Store[T]) All() iter.Seq2[uint32, T] {
	return func(yield func(uint32, T) bool) {
		for i := range s.records {
			if s.nDead > 0 && s.dead.Test(uint(i)) {
				continue
			}
			if !yield(uint32(i), s.records[i]) {
				return
			}
		}
	}
}

// SizeInBytes approximates the memory held by the sequence itself.
// recordSize is the in-memory size of one T.
func (s *Store[T]) SizeInBytes(recordSize uintptr) uint64 {
	return uint64(cap(s.records))*uint64(recordSize) + uint64(s.dead.BinaryStorageSize())
}
