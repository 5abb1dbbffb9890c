package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/value"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestRoundTripDocument(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var doc map[string]value.Value
			require.NoError(t, c.Unmarshal([]byte(`{"id":7,"score":1.5,"word":"cat","tags":["a"],"note":null}`), &doc))

			assert.Equal(t, value.KindInt, doc["id"].Kind)
			assert.Equal(t, value.KindFloat, doc["score"].Kind)
			assert.Equal(t, value.KindArray, doc["tags"].Kind)
			assert.Equal(t, value.KindNull, doc["note"].Kind)

			out, err := c.Marshal(doc)
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":7,"note":null,"score":1.5,"tags":["a"],"word":"cat"}`, string(out))
		})
	}
}

func TestMarshalIndent(t *testing.T) {
	doc := map[string]value.Value{"word": value.String("cat"), "id": value.Int(1)}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			out, err := c.MarshalIndent(doc, "", "  ")
			require.NoError(t, err)
			assert.Equal(t, "{\n  \"id\": 1,\n  \"word\": \"cat\"\n}", string(out))
		})
	}
}
