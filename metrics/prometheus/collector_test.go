package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/query"
	"github.com/hupe1980/recgo/record"
	"github.com/hupe1980/recgo/value"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordInsert(time.Millisecond, nil)
	c.RecordInsert(time.Millisecond, errors.New("dup"))
	c.RecordQuery(time.Millisecond, false, nil)
	c.RecordQuery(0, true, nil)
	c.RecordQuery(0, true, nil)
	c.RecordQuery(time.Millisecond, false, context.Canceled)
	c.RecordCompaction(7, time.Millisecond)
	c.ObserveStats(recgo.Stats{RecordCount: 10, Tombstones: 2, CacheSize: 3, ApproximateMemoryBytes: 4096})

	assert.InDelta(t, 1, testutil.ToFloat64(c.queries.WithLabelValues("miss")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.queries.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.compactions), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(c.reclaimed), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(c.records), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.tombstones), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(c.cacheSize), 0)
	assert.InDelta(t, 4096, testutil.ToFloat64(c.memory), 0)

	// One series per observed op/status pair.
	assert.Equal(t, 5, testutil.CollectAndCount(c.opLatency))

	n, err := testutil.GatherAndCount(reg, "recgo_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCollector_WithStore(t *testing.T) {
	c := NewCollector(nil)

	docs := []record.Document{
		{"id": value.Int(1), "word": value.String("cat")},
		{"id": value.Int(2), "word": value.String("dog")},
	}
	store, err := recgo.New(docs, record.Schema("id"), recgo.WithMetricsCollector(c))
	require.NoError(t, err)

	ctx := context.Background()
	spec := query.Eq("word", value.String("cat"))

	_, err = store.Query(ctx, spec)
	require.NoError(t, err)
	_, err = store.Query(ctx, spec)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(c.queries.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.queries.WithLabelValues("hit")), 0)

	require.NoError(t, store.Delete(ctx, value.Int(1)))
	require.NoError(t, store.Compact(ctx))
	assert.InDelta(t, 1, testutil.ToFloat64(c.reclaimed), 0)

	c.ObserveStats(store.Stats())
	assert.InDelta(t, 1, testutil.ToFloat64(c.records), 0)
}
