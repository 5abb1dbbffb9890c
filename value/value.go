package value

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unique"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid marks an absent value (e.g. a field missing from a record).
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindArray represents an array value.
	KindArray
)

// Value is a small typed value used for record fields, filters and sort keys.
//
// No reflection and no fmt-based stringification on the hot path: index
// buckets are keyed by Key() and ordering goes through Compare.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	s    unique.Handle[string]
	B    bool
	A    []Value
}

// Accessor extracts a field value from a record of type T.
type Accessor[T any] func(rec *T) Value

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value. Strings are interned.
func String(v string) Value { return Value{Kind: KindString, s: unique.Make(v)} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Array returns an array Value.
func Array(v []Value) Value { return Value{Kind: KindArray, A: v} }

// IsValid reports whether v holds a value (null included).
func (v Value) IsValid() bool { return v.Kind != KindInvalid }

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsFloat64 returns the float64 value if Kind is KindFloat.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	return v.F64, true
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsArray returns the array value if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.A, true
}

// Key returns a stable string representation for use in maps.
//
// Keys are kind-tagged: Int(1) and Float(1) are different keys.
func (v Value) Key() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return "i:" + strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return "f:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindString:
		return "s:" + v.s.Value()
	case KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case KindArray:
		// Element keys are length-prefixed so no element can forge a
		// boundary.
		var b strings.Builder
		b.WriteString("a:")
		for i := range v.A {
			k := v.A[i].Key()
			b.WriteString(strconv.Itoa(len(k)))
			b.WriteByte(':')
			b.WriteString(k)
		}
		return b.String()
	default:
		return "invalid"
	}
}

// Equal reports whether a and b have the same kind and value.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.I64 == b.I64
	case KindString:
		return a.s == b.s
	case KindBool:
		return a.B == b.B
	case KindInvalid, KindNull:
		return true
	default:
		return a.Key() == b.Key()
	}
}

// Text renders v for substring matching. Absent and null values render empty.
func (v Value) Text() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return v.s.Value()
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindArray:
		parts := make([]string, 0, len(v.A))
		for i := range v.A {
			parts = append(parts, v.A[i].Text())
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	switch v.Kind {
	case KindInvalid:
		return "<invalid>"
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(v.s.Value())
	default:
		return v.Text()
	}
}

// kindRank orders values of unrelated kinds. Int and Float share a rank
// and compare numerically.
func kindRank(k Kind) int {
	switch k {
	case KindInvalid:
		return 0
	case KindNull:
		return 1
	case KindBool:
		return 2
	case KindInt, KindFloat:
		return 3
	case KindString:
		return 4
	case KindArray:
		return 5
	default:
		return 6
	}
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b. Absent values sort first, then null, bool, numbers, strings
// and arrays.
func Compare(a, b Value) int {
	ra, rb := kindRank(a.Kind), kindRank(b.Kind)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch a.Kind {
	case KindInt:
		if b.Kind == KindInt {
			return cmp.Compare(a.I64, b.I64)
		}
		return cmp.Compare(float64(a.I64), b.F64)
	case KindFloat:
		if b.Kind == KindInt {
			return cmp.Compare(a.F64, float64(b.I64))
		}
		return cmp.Compare(a.F64, b.F64)
	case KindString:
		return strings.Compare(a.s.Value(), b.s.Value())
	case KindBool:
		switch {
		case a.B == b.B:
			return 0
		case !a.B:
			return -1
		default:
			return 1
		}
	case KindArray:
		n := min(len(a.A), len(b.A))
		for i := 0; i < n; i++ {
			if c := Compare(a.A[i], b.A[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.A), len(b.A))
	default:
		return 0
	}
}

// MarshalJSON implements json.Marshaler using the natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInvalid, KindNull:
		return []byte("null"), nil
	case KindInt:
		return strconv.AppendInt(nil, v.I64, 10), nil
	case KindFloat:
		if math.IsNaN(v.F64) || math.IsInf(v.F64, 0) {
			return nil, fmt.Errorf("value: unsupported float %v", v.F64)
		}
		return strconv.AppendFloat(nil, v.F64, 'g', -1, 64), nil
	case KindString:
		return json.Marshal(v.s.Value())
	case KindBool:
		return strconv.AppendBool(nil, v.B), nil
	case KindArray:
		if v.A == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.A)
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler. Integral numbers decode to
// KindInt, other numbers to KindFloat.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
