package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "words.json"), []byte(`[]`), 0o600))

	s := NewLocalSource(dir)
	ctx := context.Background()

	r, err := s.Open(ctx, "words.json")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "[]", string(data))

	_, err = s.Open(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Open(ctx, "../escape.json")
	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestMemorySource(t *testing.T) {
	s := NewMemorySource()
	ctx := context.Background()

	data := []byte("hello")
	s.Put("a/one", data)
	s.Put("b/two", []byte("world"))
	data[0] = 'j'

	r, err := s.Open(ctx, "a/one")
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got), "Put copies its input")

	_, err = s.Open(ctx, "c/three")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"a/one"}, s.List("a/"))
	assert.Equal(t, []string{"a/one", "b/two"}, s.List(""))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in, scheme, rest string
	}{
		{"s3://bucket/words.json", "s3", "bucket/words.json"},
		{"minio://bucket/a/b.jsonl", "minio", "bucket/a/b.jsonl"},
		{"data/words.json", "", "data/words.json"},
		{"/abs/words.json", "", "/abs/words.json"},
	}
	for _, tt := range tests {
		scheme, rest := Resolve(tt.in)
		assert.Equal(t, tt.scheme, scheme, tt.in)
		assert.Equal(t, tt.rest, rest, tt.in)
	}
}
