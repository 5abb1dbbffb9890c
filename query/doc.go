// Package query defines the declarative query model of recgo.
//
// A Spec combines four optional stages, applied in order:
//
//   - Filter: field == value pairs, combined with AND
//   - Search: every word of a term must occur in at least one listed field
//   - Sort (or a seeded Shuffle)
//   - Offset/Limit pagination
//
// Example:
//
//	spec := query.Eq("category", value.String("animals")).
//	    Matching("ca", "word").
//	    SortBy("word", query.Ascending).
//	    Window(0, 10)
//
// Specs have a canonical encoding (Canonical) and a derived cache key
// (Hash). Two specs that differ only in filter insertion order or search
// field order share the same key.
package query
