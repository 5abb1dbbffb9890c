package exec

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/recgo/internal/index"
	"github.com/hupe1980/recgo/internal/recstore"
	"github.com/hupe1980/recgo/query"
	"github.com/hupe1980/recgo/testutil"
	"github.com/hupe1980/recgo/value"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newExecutor(t *testing.T, words []testutil.Word, cfg Config[testutil.Word], indexed ...string) *Executor[testutil.Word] {
	t.Helper()

	s := recstore.New[testutil.Word](len(words))
	for _, w := range words {
		s.Append(w)
	}
	idx, err := index.New(testutil.ResolveWord, indexed...)
	require.NoError(t, err)
	idx.Build(s.All())

	cfg.Resolve = testutil.ResolveWord
	return New(s, idx, cfg)
}

var small = []testutil.Word{
	{ID: 1, Word: "cat", Category: "animals", Length: 3, Score: 2.5},
	{ID: 2, Word: "dog", Category: "animals", Length: 3, Score: 1.5, Note: "Loyal friend"},
	{ID: 3, Word: "cake", Category: "food", Length: 4, Score: 9},
	{ID: 4, Word: "Catfish", Category: "animals", Length: 7, Score: 2.5},
	{ID: 5, Word: "carrot", Category: "food", Length: 6, Score: 4},
}

func TestExecute_Filter(t *testing.T) {
	ctx := context.Background()

	for _, indexed := range [][]string{nil, {"category"}, {"category", "length"}} {
		e := newExecutor(t, small, Config[testutil.Word]{}, indexed...)

		res, err := e.Execute(ctx, query.Eq("category", value.String("animals")))
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 4}, testutil.IDs(res.Data), "indexed=%v", indexed)
		assert.Equal(t, 3, res.TotalCount)
		assert.False(t, res.HasMore)
		assert.False(t, res.Cached)

		res, err = e.Execute(ctx, query.Eq("category", value.String("animals")).And("length", value.Int(3)))
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, testutil.IDs(res.Data), "indexed=%v", indexed)
	}
}

func TestExecute_FilterNoMatch(t *testing.T) {
	ctx := context.Background()
	e := newExecutor(t, small, Config[testutil.Word]{}, "category")

	tests := []struct {
		name string
		spec query.Spec
	}{
		{"unknown value", query.Eq("category", value.String("plants"))},
		{"unknown field", query.Eq("color", value.String("red"))},
		{"absent value", query.Eq("word", value.Value{})},
		{"type mismatch", query.Eq("length", value.String("3"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Execute(ctx, tt.spec)
			require.NoError(t, err)
			assert.Empty(t, res.Data)
			assert.Equal(t, 0, res.TotalCount)
			assert.False(t, res.HasMore)
		})
	}
}

func TestExecute_NumericEquality(t *testing.T) {
	e := newExecutor(t, small, Config[testutil.Word]{}, "score")

	res, err := e.Execute(context.Background(), query.Eq("score", value.Float(2.5)))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, testutil.IDs(res.Data))
}

func TestExecute_Search(t *testing.T) {
	ctx := context.Background()
	e := newExecutor(t, small, Config[testutil.Word]{})

	res, err := e.Execute(ctx, query.Match("CAT", "word"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, testutil.IDs(res.Data))

	// Every word must match some field.
	res, err = e.Execute(ctx, query.Match("ca food", "word", "category"))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, testutil.IDs(res.Data))

	// Absent fields never match.
	res, err = e.Execute(ctx, query.Match("loyal", "note"))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, testutil.IDs(res.Data))

	// Blank term keeps everything.
	res, err = e.Execute(ctx, query.Match("   ", "word"))
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalCount)

	res, err = e.Execute(ctx, query.Match("cat", "color"))
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestExecute_Sort(t *testing.T) {
	ctx := context.Background()
	e := newExecutor(t, small, Config[testutil.Word]{})

	res, err := e.Execute(ctx, query.Spec{}.SortBy("score", query.Descending))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 1, 4, 2}, testutil.IDs(res.Data), "ties keep insertion order")

	res, err = e.Execute(ctx, query.Spec{}.SortBy("category", query.Ascending).SortBy("word", query.Descending))
	require.NoError(t, err)
	// "Catfish" < "cat" bytewise.
	assert.Equal(t, []int64{2, 1, 4, 5, 3}, testutil.IDs(res.Data))

	// Absent values sort first ascending.
	res, err = e.Execute(ctx, query.Spec{}.SortBy("note", query.Ascending))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4, 5, 2}, testutil.IDs(res.Data))

	res, err = e.Execute(ctx, query.Spec{}.SortBy("color", query.Ascending))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, testutil.IDs(res.Data))
}

func TestExecute_Shuffle(t *testing.T) {
	ctx := context.Background()
	words := testutil.NewRNG(1).Words(200)
	e := newExecutor(t, words, Config[testutil.Word]{})

	a, err := e.Execute(ctx, query.Spec{}.Shuffled(42))
	require.NoError(t, err)
	b, err := e.Execute(ctx, query.Spec{}.Shuffled(42))
	require.NoError(t, err)
	c, err := e.Execute(ctx, query.Spec{}.Shuffled(43))
	require.NoError(t, err)

	assert.Equal(t, testutil.IDs(a.Data), testutil.IDs(b.Data))
	assert.NotEqual(t, testutil.IDs(a.Data), testutil.IDs(c.Data))
	assert.ElementsMatch(t, testutil.IDs(words), testutil.IDs(a.Data))
}

func TestExecute_Pagination(t *testing.T) {
	ctx := context.Background()
	e := newExecutor(t, small, Config[testutil.Word]{})

	tests := []struct {
		name          string
		offset, limit int
		want          []int64
		hasMore       bool
	}{
		{"first page", 0, 2, []int64{1, 2}, true},
		{"middle page", 2, 2, []int64{3, 4}, true},
		{"last page", 4, 2, []int64{5}, false},
		{"exact end", 3, 2, []int64{4, 5}, false},
		{"past end", 10, 2, []int64{}, false},
		{"no limit", 1, 0, []int64{2, 3, 4, 5}, false},
		{"negative window", -3, -1, []int64{1, 2, 3, 4, 5}, false},
		{"max offset", math.MaxInt, 1, []int64{}, false},
		{"max limit", 2, math.MaxInt, []int64{3, 4, 5}, false},
		{"max offset and limit", math.MaxInt, math.MaxInt, []int64{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Execute(ctx, query.Spec{Offset: tt.offset, Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, testutil.IDs(res.Data))
			assert.Equal(t, 5, res.TotalCount)
			assert.Equal(t, tt.hasMore, res.HasMore)
		})
	}
}

func TestExecute_MatchesBruteForce(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(7)
	words := rng.Words(20_000)

	seq := newExecutor(t, words, Config[testutil.Word]{}, "category")
	par := newExecutor(t, words, Config[testutil.Word]{ScanWorkers: 4, ScanChunkSize: 1000}, "category")

	for _, cat := range testutil.Categories {
		for length := 2; length <= 8; length += 2 {
			filter := map[string]value.Value{
				"category": value.String(cat),
				"length":   value.Int(int64(length)),
			}
			want := testutil.BruteForceFilter(words, filter)

			for name, e := range map[string]*Executor[testutil.Word]{"sequential": seq, "parallel": par} {
				res, err := e.Execute(ctx, query.Spec{Filter: filter})
				require.NoError(t, err)
				if diff := cmp.Diff(want, res.Data); diff != "" {
					t.Fatalf("%s %s/%d mismatch (-want +got):\n%s", name, cat, length, diff)
				}
			}
		}
	}

	want := testutil.BruteForceSearch(words, []string{"word", "note"}, "ka lo")
	res, err := par.Execute(ctx, query.Match("ka lo", "word", "note"))
	require.NoError(t, err)
	assert.Equal(t, testutil.IDs(want), testutil.IDs(res.Data))
}

func TestExecute_Tombstones(t *testing.T) {
	s := recstore.New[testutil.Word](len(small))
	for _, w := range small {
		s.Append(w)
	}
	idx, err := index.New(testutil.ResolveWord, "category")
	require.NoError(t, err)
	idx.Build(s.All())

	rec, err := s.Get(0)
	require.NoError(t, err)
	idx.Remove(0, &rec)
	require.NoError(t, s.Tombstone(0))

	e := New(s, idx, Config[testutil.Word]{Resolve: testutil.ResolveWord})

	res, err := e.Execute(context.Background(), query.Spec{})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4, 5}, testutil.IDs(res.Data))

	res, err = e.Execute(context.Background(), query.Eq("word", value.String("cat")))
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestExecute_Clone(t *testing.T) {
	calls := 0
	e := newExecutor(t, small, Config[testutil.Word]{
		Clone: func(w testutil.Word) testutil.Word {
			calls++
			return w
		},
	})

	res, err := e.Execute(context.Background(), query.Spec{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
	assert.Equal(t, 2, calls, "only the returned window is cloned")
}

func TestExecute_Canceled(t *testing.T) {
	words := testutil.NewRNG(3).Words(50_000)
	e := newExecutor(t, words, Config[testutil.Word]{ScanWorkers: 4, ScanChunkSize: 1000})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, query.Eq("word", value.String("ka")))
	assert.ErrorIs(t, err, context.Canceled)
}
