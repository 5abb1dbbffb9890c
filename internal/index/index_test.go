package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/internal/recstore"
	"github.com/hupe1980/recgo/value"
)

type word struct {
	ID       int64
	Category string
	Word     string
}

func resolveWord(field string) (value.Accessor[word], bool) {
	switch field {
	case "id":
		return func(w *word) value.Value { return value.Int(w.ID) }, true
	case "category":
		return func(w *word) value.Value { return value.String(w.Category) }, true
	case "word":
		return func(w *word) value.Value { return value.String(w.Word) }, true
	default:
		return nil, false
	}
}

func newFixture(t *testing.T) (*recstore.Store[word], *Manager[word]) {
	t.Helper()

	s := recstore.New[word](3)
	s.Append(word{ID: 1, Category: "animals", Word: "cat"})
	s.Append(word{ID: 2, Category: "animals", Word: "dog"})
	s.Append(word{ID: 3, Category: "food", Word: "cake"})

	m, err := New(resolveWord, "id", "category", "category")
	require.NoError(t, err)
	m.Build(s.All())
	return s, m
}

func TestManager_Build(t *testing.T) {
	_, m := newFixture(t)

	assert.Equal(t, []string{"id", "category"}, m.Fields())
	assert.True(t, m.Indexed("category"))
	assert.False(t, m.Indexed("word"))
	assert.Equal(t, 2, m.Cardinality("category"))
	assert.Equal(t, 5, m.BucketCount())
	assert.NotZero(t, m.SizeInBytes())

	bm, ok := m.Lookup("category", value.String("animals"))
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 1}, bm.ToArray())

	bm, ok = m.Lookup("category", value.String("plants"))
	require.True(t, ok)
	assert.True(t, bm.IsEmpty())

	_, ok = m.Lookup("word", value.String("cat"))
	assert.False(t, ok, "non-indexed fields must be scanned")
}

func TestManager_UnknownField(t *testing.T) {
	_, err := New(resolveWord, "color")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestManager_Reindex(t *testing.T) {
	s, m := newFixture(t)

	old, err := s.Get(1)
	require.NoError(t, err)
	updated := old
	updated.Category = "pets"

	assert.Equal(t, 1, m.Reindex(1, &old, &updated))

	bm, _ := m.Lookup("category", value.String("animals"))
	assert.Equal(t, []uint32{0}, bm.ToArray())
	bm, _ = m.Lookup("category", value.String("pets"))
	assert.Equal(t, []uint32{1}, bm.ToArray())

	// Unchanged indexed values do not move.
	same := updated
	same.Word = "puppy"
	assert.Equal(t, 0, m.Reindex(1, &updated, &same))
}

func TestManager_RemoveDeletesEmptyBuckets(t *testing.T) {
	s, m := newFixture(t)

	rec, err := s.Get(2)
	require.NoError(t, err)
	m.Remove(2, &rec)

	assert.Equal(t, 1, m.Cardinality("category"))
	bm, ok := m.Lookup("category", value.String("food"))
	require.True(t, ok)
	assert.True(t, bm.IsEmpty())

	bm, _ = m.Lookup("id", value.Int(3))
	assert.True(t, bm.IsEmpty())
}

func TestManager_AbsentValuesNotIndexed(t *testing.T) {
	resolve := func(field string) (value.Accessor[word], bool) {
		return func(*word) value.Value { return value.Value{} }, true
	}
	m, err := New(resolve, "missing")
	require.NoError(t, err)

	m.Add(0, &word{})
	assert.Equal(t, 0, m.BucketCount())
	m.Remove(0, &word{})
}
