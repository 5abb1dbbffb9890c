// Package codec selects the JSON implementation used to decode datasets and
// to render command output.
package codec

// Codec encodes and decodes JSON documents.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default decodes datasets. It honors json.Unmarshaler, so value.Value keeps
// the integer/float distinction of the source text.
var Default Codec = GoJSON{}

// Stable renders output whose bytes must not change between releases.
var Stable Codec = JSON{}

// ByName returns the codec registered under name ("json" or "go-json").
func ByName(name string) (Codec, bool) {
	switch name {
	case JSON{}.Name():
		return JSON{}, true
	case GoJSON{}.Name():
		return GoJSON{}, true
	default:
		return nil, false
	}
}
