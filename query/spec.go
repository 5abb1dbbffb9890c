package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hupe1980/recgo/value"
)

// Direction is the sort direction of a SortKey.
type Direction int8

const (
	// Ascending sorts smaller values first.
	Ascending Direction = iota
	// Descending sorts larger values first.
	Descending
)

// String returns "asc" or "desc".
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection parses "asc"/"desc" (case-insensitive). Empty means ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("query: invalid sort direction %q", s)
	}
}

// SortKey orders results by one field.
type SortKey struct {
	Field     string
	Direction Direction
}

// Search keeps records where every word of Term is a substring of at least
// one of Fields. Matching is case-insensitive.
type Search struct {
	Fields []string
	Term   string
}

// Shuffle replaces sorting with a seeded random permutation.
// The same seed over the same candidates always yields the same order.
type Shuffle struct {
	Seed uint64
}

// Spec is the declarative description of a query.
//
// Filter pairs are combined with AND. Limit == 0 means no limit.
type Spec struct {
	Filter  map[string]value.Value
	Search  *Search
	Sort    []SortKey
	Shuffle *Shuffle
	Limit   int
	Offset  int
}

// Eq returns a spec matching records whose field equals v.
func Eq(field string, v value.Value) Spec {
	return Spec{Filter: map[string]value.Value{field: v}}
}

// Match returns a spec searching term in the given fields.
func Match(term string, fields ...string) Spec {
	return Spec{Search: &Search{Fields: fields, Term: term}}
}

// And returns a copy of s with an additional equality filter.
func (s Spec) And(field string, v value.Value) Spec {
	out := s.clone()
	if out.Filter == nil {
		out.Filter = make(map[string]value.Value, 1)
	}
	out.Filter[field] = v
	return out
}

// Matching returns a copy of s with the given search.
func (s Spec) Matching(term string, fields ...string) Spec {
	out := s.clone()
	out.Search = &Search{Fields: slices.Clone(fields), Term: term}
	return out
}

// SortBy returns a copy of s with an additional sort key.
func (s Spec) SortBy(field string, dir Direction) Spec {
	out := s.clone()
	out.Sort = append(out.Sort, SortKey{Field: field, Direction: dir})
	return out
}

// Shuffled returns a copy of s ordered by a seeded permutation.
func (s Spec) Shuffled(seed uint64) Spec {
	out := s.clone()
	out.Shuffle = &Shuffle{Seed: seed}
	return out
}

// Window returns a copy of s with the given offset and limit.
func (s Spec) Window(offset, limit int) Spec {
	out := s.clone()
	out.Offset = offset
	out.Limit = limit
	return out
}

// WithoutWindow returns a copy of s with offset and limit cleared.
func (s Spec) WithoutWindow() Spec {
	return s.Window(0, 0)
}

// FilterFields returns the filter field names in sorted order.
func (s Spec) FilterFields() []string {
	return slices.Sorted(maps.Keys(s.Filter))
}

func (s Spec) clone() Spec {
	out := s
	if s.Filter != nil {
		out.Filter = maps.Clone(s.Filter)
	}
	if s.Search != nil {
		search := *s.Search
		search.Fields = slices.Clone(s.Search.Fields)
		out.Search = &search
	}
	out.Sort = slices.Clone(s.Sort)
	if s.Shuffle != nil {
		shuffle := *s.Shuffle
		out.Shuffle = &shuffle
	}
	return out
}
