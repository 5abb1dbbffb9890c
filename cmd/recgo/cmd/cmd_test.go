package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/query"
	"github.com/hupe1980/recgo/source"
	"github.com/hupe1980/recgo/value"
)

const testData = "testdata/words.jsonl"

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.Bytes(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sc := range cmd.Commands() {
		names[sc.Name()] = true
	}
	assert.True(t, names["query"])
	assert.True(t, names["stats"])
	assert.True(t, names["sample"])

	queryCmd, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)
	for _, flag := range []string{"filter", "search", "search-fields", "sort", "seed", "limit", "offset", "page", "page-size"} {
		assert.NotNil(t, queryCmd.Flags().Lookup(flag), flag)
	}
}

func TestQuery_Golden(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "query_filter_sort",
			args: []string{"query", "--data", testData, "--index", "category", "--filter", "category=animals", "--sort", "word", "--format", "json"},
		},
		{
			name: "query_search_table",
			args: []string{"query", "--data", testData, "--search", "CA", "--search-fields", "word", "--sort", "id", "--format", "table"},
		},
		{
			name: "query_page",
			args: []string{"query", "--data", testData, "--sort", "id", "--page", "2", "--page-size", "2", "--format", "json"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			newGoldie(t).Assert(t, tt.name, out)
		})
	}
}

func TestQuery_LimitOffset(t *testing.T) {
	out, err := run(t, "query", "--data", testData, "--sort", "difficulty:desc", "--sort", "id", "--limit", "2", "--offset", "1", "--format", "json")
	require.NoError(t, err)

	var res struct {
		Data       []map[string]any `json:"data"`
		TotalCount int              `json:"total_count"`
		HasMore    bool             `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(out, &res))

	assert.Equal(t, 6, res.TotalCount)
	assert.True(t, res.HasMore)
	require.Len(t, res.Data, 2)
	// difficulty desc, id asc: 3, 6, 4, 5, 1, 2
	assert.EqualValues(t, 6, res.Data[0]["id"])
	assert.EqualValues(t, 4, res.Data[1]["id"])
}

func TestSample(t *testing.T) {
	args := []string{"sample", "--data", testData, "-n", "2", "--seed", "7", "--filter", "category=animals", "--format", "json"}

	first, err := run(t, args...)
	require.NoError(t, err)
	second, err := run(t, args...)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "same seed draws the same records")

	var res struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(first, &res))
	require.Len(t, res.Data, 2)
	assert.NotEqual(t, res.Data[0]["id"], res.Data[1]["id"])
	for _, doc := range res.Data {
		assert.Equal(t, "animals", doc["category"])
	}
}

func TestStats(t *testing.T) {
	out, err := run(t, "stats", "--data", testData, "--index", "category,difficulty", "--format", "json")
	require.NoError(t, err)

	var stats StatsOutput
	require.NoError(t, json.Unmarshal(out, &stats))
	assert.Equal(t, 6, stats.RecordCount)
	assert.Equal(t, 3, stats.IndexCount)
	assert.Equal(t, []string{"id", "category", "difficulty"}, stats.IndexedFields)
	assert.Equal(t, 100, stats.CacheCapacity)
	assert.Zero(t, stats.Tombstones)
	assert.NotZero(t, stats.ApproximateMemoryBytes)

	out, err = run(t, "stats", "--data", testData, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, string(out), "records")
	assert.Contains(t, string(out), "6")
}

func TestErrors(t *testing.T) {
	t.Run("NoDataset", func(t *testing.T) {
		t.Setenv("RECGO_DATA", "")
		_, err := run(t, "query")
		assert.ErrorIs(t, err, errNoDataset)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := run(t, "query", "--data", "testdata/missing.jsonl")
		assert.ErrorIs(t, err, source.ErrNotFound)
	})

	t.Run("UnsupportedScheme", func(t *testing.T) {
		_, err := run(t, "query", "--data", "ftp://host/words.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported dataset scheme")
	})

	t.Run("BadBucketLocation", func(t *testing.T) {
		_, err := run(t, "query", "--data", "s3://bucket-only")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheme://bucket/key")
	})

	t.Run("BadFilter", func(t *testing.T) {
		_, err := run(t, "query", "--data", testData, "--filter", "category")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field=value")
	})

	t.Run("SearchWithoutFields", func(t *testing.T) {
		_, err := run(t, "query", "--data", testData, "--search", "cat")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--search-fields")
	})

	t.Run("BadFormat", func(t *testing.T) {
		_, err := run(t, "query", "--data", testData, "--format", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output.format")
	})
}

func TestBuildSpec(t *testing.T) {
	spec, err := buildSpec(queryOptions{
		filters:      []string{"category=animals", "difficulty=2", `code="007"`},
		search:       "ca",
		searchFields: []string{"word"},
		sorts:        []string{"difficulty:desc", "word"},
		limit:        10,
		offset:       5,
	}, false)
	require.NoError(t, err)

	want := query.Eq("category", value.String("animals")).
		And("difficulty", value.Int(2)).
		And("code", value.String("007")).
		Matching("ca", "word").
		SortBy("difficulty", query.Descending).
		SortBy("word", query.Ascending).
		Window(5, 10)
	assert.Equal(t, want.Hash(), spec.Hash())

	shuffled, err := buildSpec(queryOptions{seed: 3}, true)
	require.NoError(t, err)
	require.NotNil(t, shuffled.Shuffle)
	assert.Equal(t, uint64(3), shuffled.Shuffle.Seed)

	_, err = buildSpec(queryOptions{sorts: []string{"word:sideways"}}, false)
	assert.Error(t, err)

	_, err = buildSpec(queryOptions{limit: -1}, false)
	assert.Error(t, err)
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{"word"}, columns(nil, "id", []string{"word"}))
	assert.Equal(t, []string{"id"}, columns(nil, "id", nil))
}
