package query

import (
	"slices"

	"github.com/hupe1980/recgo/value"
)

// ByField returns a spec matching records whose field equals v. Plain Go
// values are converted with value.FromAny; values it rejects match nothing.
func ByField(field string, v any) Spec {
	val, err := value.FromAny(v)
	if err != nil {
		val = value.Value{}
	}
	return Eq(field, val)
}

// Term returns a spec keeping records where every word of term occurs in
// at least one of fields.
func Term(fields []string, term string) Spec {
	return Spec{Search: &Search{Fields: slices.Clone(fields), Term: term}}
}

// Random returns a spec drawing up to n records in an order fixed by seed.
func Random(n int, seed uint64) Spec {
	return Spec{}.Shuffled(seed).Window(0, max(n, 0))
}
