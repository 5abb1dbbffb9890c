package recgo

import (
	"fmt"

	"github.com/hupe1980/recgo/value"
)

// Schema describes how a Store reads fields of T.
type Schema[T any] struct {
	// PrimaryKey names the field holding the unique, immutable record key.
	PrimaryKey string

	// Fields maps field names to accessors. An accessor returns the zero
	// value.Value when the field is absent on a record.
	Fields map[string]value.Accessor[T]

	// Dynamic, if set, resolves fields missing from Fields. It suits
	// map-shaped records where any name may be present.
	Dynamic func(rec *T, field string) value.Value

	// Clone deep-copies a record. It is applied on insert, before an update
	// patch and to every record handed out. Required when T holds maps or
	// slices that callers may mutate. If nil, records are copied by value.
	Clone func(T) T
}

// Resolve returns the accessor for field.
func (s Schema[T]) Resolve(field string) (value.Accessor[T], bool) {
	if acc, ok := s.Fields[field]; ok && acc != nil {
		return acc, true
	}
	if s.Dynamic != nil {
		dyn := s.Dynamic
		return func(rec *T) value.Value { return dyn(rec, field) }, true
	}
	return nil, false
}

func (s Schema[T]) validate() error {
	if s.PrimaryKey == "" {
		return fmt.Errorf("%w: primary key not set", ErrInvalidSchema)
	}
	if _, ok := s.Resolve(s.PrimaryKey); !ok {
		return fmt.Errorf("%w: no accessor for primary key %q", ErrInvalidSchema, s.PrimaryKey)
	}
	return nil
}

func (s Schema[T]) clone(rec T) T {
	if s.Clone != nil {
		return s.Clone(rec)
	}
	return rec
}
