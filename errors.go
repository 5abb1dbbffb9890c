package recgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/recgo/internal/recstore"
	"github.com/hupe1980/recgo/value"
)

var (
	// ErrDuplicateKey is returned when a primary key already exists among
	// live records.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when no live record has the given key.
	ErrNotFound = errors.New("not found")

	// ErrImmutableKey is returned when an update changes the primary key.
	ErrImmutableKey = errors.New("primary key is immutable")

	// ErrMissingKey is returned when a record has no primary-key value.
	ErrMissingKey = errors.New("missing primary key")

	// ErrInvalidSchema is returned by New for unusable schemas.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrIndexOutOfBounds signals an internal inconsistency between the
	// index and the record store. It is never returned while the store's
	// invariants hold.
	ErrIndexOutOfBounds = recstore.ErrIndexOutOfBounds
)

// KeyError records a failed operation on a primary key.
//
// The underlying sentinel can be matched with errors.Is.
type KeyError struct {
	Op  string
	Key value.Value
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("recgo: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }
