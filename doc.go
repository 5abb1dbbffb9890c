// Package recgo provides an embedded, in-memory, indexed record store.
//
// A Store holds records of any type T. Fields are read through a Schema of
// typed accessors, so no reflection is involved. Queries combine equality
// filters, substring search, multi-key sort and pagination; identical
// queries are answered from a TTL- and capacity-bounded cache that every
// mutation purges.
//
// # Quick Start
//
//	schema := recgo.Schema[Word]{
//	    PrimaryKey: "id",
//	    Fields: map[string]value.Accessor[Word]{
//	        "id":       func(w *Word) value.Value { return value.Int(w.ID) },
//	        "category": func(w *Word) value.Value { return value.String(w.Category) },
//	        "word":     func(w *Word) value.Value { return value.String(w.Word) },
//	    },
//	}
//
//	s, _ := recgo.New(words, schema, recgo.WithIndexedFields("category"))
//	res, _ := s.Query(ctx, query.Eq("category", value.String("animals")).
//	    SortBy("word", query.Ascending).
//	    Window(0, 20))
//
// For map-shaped data, record.Document with record.Schema supplies the
// accessors dynamically.
//
// # Query Semantics
//
//   - Filter pairs are combined with AND. Indexed fields are answered from
//     roaring bitmaps, others by a linear scan of the surviving candidates.
//   - Search keeps records where every word of the case-folded term is a
//     substring of at least one listed field.
//   - Sort is stable; ties keep insertion order. A seeded shuffle replaces
//     random ordering and is reproducible for a given seed.
//   - Unknown fields never raise errors: filters on them match nothing and
//     sorts on them compare equal. Offsets past the end yield empty pages.
//
// # Mutations
//
// Insert, Update and Delete are atomic per call. They keep every index in
// step with the records and purge the query cache before returning. Deletes
// leave tombstones which Compact (or automatic compaction, see
// WithCompactionThreshold) reclaims.
package recgo
