// Package record provides Document, a map-shaped record for data whose
// fields are only known at run time.
package record

import (
	"maps"
	"slices"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/value"
)

// Document is a record of named values.
type Document map[string]value.Value

// FromMap converts decoded JSON-like data into a Document.
func FromMap(m map[string]any) (Document, error) {
	doc := make(Document, len(m))
	for k, v := range m {
		val, err := value.FromAny(v)
		if err != nil {
			return nil, &FieldError{Field: k, Err: err}
		}
		doc[k] = val
	}
	return doc, nil
}

// Get returns the value of field, or the zero value.Value if absent.
func (d Document) Get(field string) value.Value {
	return d[field]
}

// Fields returns the field names in sorted order.
func (d Document) Fields() []string {
	return slices.Sorted(maps.Keys(d))
}

// Clone returns a copy of d. Array values share their elements, which are
// never modified in place.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// Merge copies every field of partial into d. Fields set to the zero
// value.Value are removed.
func (d Document) Merge(partial Document) {
	for k, v := range partial {
		if !v.IsValid() {
			delete(d, k)
			continue
		}
		d[k] = v
	}
}

// Set returns an update patch that merges partial into a document.
func Set(partial Document) func(*Document) {
	return func(d *Document) {
		if *d == nil {
			*d = make(Document, len(partial))
		}
		d.Merge(partial)
	}
}

// Schema returns a schema over documents keyed by primaryKey. Every field
// name resolves; fields missing from a document are absent.
func Schema(primaryKey string) recgo.Schema[Document] {
	return recgo.Schema[Document]{
		PrimaryKey: primaryKey,
		Dynamic: func(d *Document, field string) value.Value {
			return (*d)[field]
		},
		Clone: Document.Clone,
	}
}
