// Package value provides the typed field values recgo indexes, filters and
// sorts on.
//
// Values can be:
//
//   - String: value.String("animals")
//   - Int: value.Int(2024)
//   - Float: value.Float(3.14)
//   - Bool: value.Bool(true)
//   - Null: value.Null()
//   - Array: value.Array([]value.Value{...})
//
// The zero Value has KindInvalid and stands for "field absent".
//
// Records expose their fields through Accessor functions, supplied once at
// store construction:
//
//	fields := map[string]value.Accessor[Word]{
//	    "id":       func(w *Word) value.Value { return value.Int(w.ID) },
//	    "category": func(w *Word) value.Value { return value.String(w.Category) },
//	}
package value
