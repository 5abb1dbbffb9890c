package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "s:animals", String("animals").Key())
	assert.Equal(t, "i:1", Int(1).Key())
	assert.NotEqual(t, Int(1).Key(), Float(1).Key())
	assert.Equal(t, "b:1", Bool(true).Key())
	assert.Equal(t, "null", Null().Key())
	assert.Equal(t, "invalid", Value{}.Key())
	assert.Equal(t, "a:3:s:a3:i:2", Array([]Value{String("a"), Int(2)}).Key())
	assert.Equal(t, "a:", Array(nil).Key())

	// Element contents must not be able to fake an element boundary.
	pair := Array([]Value{String("a"), String("b")})
	forged := Array([]Value{String("a\x1fs:b")})
	assert.NotEqual(t, pair.Key(), forged.Key())
	nested := Array([]Value{Array([]Value{String("a")}), String("b")})
	flat := Array([]Value{String("a"), String("b")})
	assert.NotEqual(t, nested.Key(), flat.Key())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(String("cat"), String("cat")))
	assert.False(t, Equal(String("cat"), String("dog")))
	assert.False(t, Equal(Int(1), Float(1)))
	assert.True(t, Equal(Float(2.5), Float(2.5)))
	assert.True(t, Equal(Null(), Null()))
	assert.False(t, Equal(Null(), Value{}))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"ints", Int(1), Int(2), -1},
		{"int float", Int(2), Float(1.5), 1},
		{"float int equal", Float(3), Int(3), 0},
		{"strings", String("cake"), String("cat"), -1},
		{"bools", Bool(false), Bool(true), -1},
		{"absent first", Value{}, Null(), -1},
		{"null before numbers", Null(), Int(0), -1},
		{"numbers before strings", Int(99), String("a"), -1},
		{"arrays", Array([]Value{Int(1), Int(2)}), Array([]Value{Int(1)}), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "cat", String("cat").Text())
	assert.Equal(t, "42", Int(42).Text())
	assert.Equal(t, "0.5", Float(0.5).Text())
	assert.Equal(t, "true", Bool(true).Text())
	assert.Equal(t, "", Null().Text())
	assert.Equal(t, "a b", Array([]Value{String("a"), String("b")}).Text())
}

func TestJSON(t *testing.T) {
	var doc map[string]Value
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"score":2.5,"word":"cat","ok":true,"tags":["x"],"none":null}`), &doc))

	assert.Equal(t, KindInt, doc["id"].Kind)
	assert.Equal(t, KindFloat, doc["score"].Kind)
	assert.Equal(t, KindString, doc["word"].Kind)
	assert.Equal(t, KindBool, doc["ok"].Kind)
	assert.Equal(t, KindArray, doc["tags"].Kind)
	assert.Equal(t, KindNull, doc["none"].Kind)

	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"score":2.5,"word":"cat","ok":true,"tags":["x"],"none":null}`, string(b))
}

func TestJSON_NestedObjectRejected(t *testing.T) {
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(json.Number("7"))
	require.NoError(t, err)
	assert.Equal(t, Int(7), v)

	v, err = FromAny(json.Number("7.5"))
	require.NoError(t, err)
	assert.Equal(t, Float(7.5), v)

	v, err = FromAny([]any{"a", 1})
	require.NoError(t, err)
	assert.Equal(t, "a:3:s:a3:i:1", v.Key())

	_, err = FromAny(uint64(1) << 63)
	assert.Error(t, err)

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	assert.Equal(t, Int(1), Parse("1"))
	assert.Equal(t, Float(1.5), Parse("1.5"))
	assert.Equal(t, Bool(true), Parse("true"))
	assert.Equal(t, Null(), Parse("null"))
	assert.True(t, Equal(String("animals"), Parse("animals")))
	assert.True(t, Equal(String("1"), Parse(`"1"`)))
}
