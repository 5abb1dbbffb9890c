package query

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// hashDomain separates query keys from any other xxhash keyspace.
// The version suffix allows the encoding to change.
const hashDomain = "recgo/query/v1"

type canonicalSpec struct {
	Filter  [][2]string      `json:"filter,omitempty"`
	Search  *canonicalSearch `json:"search,omitempty"`
	Sort    [][2]string      `json:"sort,omitempty"`
	Shuffle *uint64          `json:"shuffle,omitempty"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

type canonicalSearch struct {
	Fields []string `json:"fields"`
	Words  []string `json:"words"`
}

// Canonical returns the canonical encoding of s.
//
// Filter pairs are sorted by field, search fields are sorted and
// deduplicated, and the search term is reduced to its folded words, so
// specs with the same meaning encode identically. Sort key order is
// significant and kept as is. Negative offsets and limits encode as 0.
func (s Spec) Canonical() []byte {
	c := canonicalSpec{
		Offset: max(s.Offset, 0),
		Limit:  max(s.Limit, 0),
	}

	for _, field := range s.FilterFields() {
		c.Filter = append(c.Filter, [2]string{field, s.Filter[field].Key()})
	}

	if s.Search != nil {
		if words := Words(s.Search.Term); len(words) > 0 {
			fields := slices.Clone(s.Search.Fields)
			slices.Sort(fields)
			c.Search = &canonicalSearch{
				Fields: slices.Compact(fields),
				Words:  words,
			}
		}
	}

	for _, key := range s.Sort {
		c.Sort = append(c.Sort, [2]string{key.Field, key.Direction.String()})
	}

	if s.Shuffle != nil {
		seed := s.Shuffle.Seed
		c.Shuffle = &seed
	}

	// Only strings, ints and slices thereof: Marshal cannot fail.
	b, _ := json.Marshal(c)
	return b
}

// Hash returns a fixed-width hex key for s, suitable as a cache key.
func (s Spec) Hash() string {
	d := xxhash.New()
	_, _ = d.WriteString(hashDomain)
	_, _ = d.Write([]byte{0x00})
	_, _ = d.Write(s.Canonical())

	return fmt.Sprintf("%016x", d.Sum64())
}
