// Package prometheus exports recgo metrics to Prometheus.
//
//	c := prometheus.NewCollector(prom.DefaultRegisterer)
//	store, err := recgo.New(records, schema, recgo.WithMetricsCollector(c))
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/recgo"
)

const namespace = "recgo"

var _ recgo.MetricsCollector = (*Collector)(nil)

// Collector implements recgo.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency   *prometheus.HistogramVec
	queries     *prometheus.CounterVec
	compactions prometheus.Counter
	reclaimed   prometheus.Counter
	records     prometheus.Gauge
	tombstones  prometheus.Gauge
	cacheSize   prometheus.Gauge
	memory      prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of store operations",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"op", "status"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total queries by cache outcome",
		}, []string{"cache"}),
		compactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compactions_total",
			Help:      "Total compactions completed",
		}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaimed_records_total",
			Help:      "Total tombstones dropped by compaction",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of live records",
		}),
		tombstones: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tombstones",
			Help:      "Number of deleted records awaiting compaction",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "query_cache_entries",
			Help:      "Number of cached query results",
		}),
		memory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "approximate_memory_bytes",
			Help:      "Approximate memory held by records and indexes",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			c.opLatency,
			c.queries,
			c.compactions,
			c.reclaimed,
			c.records,
			c.tombstones,
			c.cacheSize,
			c.memory,
		)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordInsert implements recgo.MetricsCollector.
func (c *Collector) RecordInsert(d time.Duration, err error) {
	c.opLatency.WithLabelValues("insert", status(err)).Observe(d.Seconds())
}

// RecordUpdate implements recgo.MetricsCollector.
func (c *Collector) RecordUpdate(d time.Duration, err error) {
	c.opLatency.WithLabelValues("update", status(err)).Observe(d.Seconds())
}

// RecordDelete implements recgo.MetricsCollector.
func (c *Collector) RecordDelete(d time.Duration, err error) {
	c.opLatency.WithLabelValues("delete", status(err)).Observe(d.Seconds())
}

// RecordQuery implements recgo.MetricsCollector.
func (c *Collector) RecordQuery(d time.Duration, cached bool, err error) {
	c.opLatency.WithLabelValues("query", status(err)).Observe(d.Seconds())
	if err != nil {
		return
	}
	outcome := "miss"
	if cached {
		outcome = "hit"
	}
	c.queries.WithLabelValues(outcome).Inc()
}

// RecordCompaction implements recgo.MetricsCollector.
func (c *Collector) RecordCompaction(reclaimed int, d time.Duration) {
	c.opLatency.WithLabelValues("compact", "success").Observe(d.Seconds())
	c.compactions.Inc()
	c.reclaimed.Add(float64(reclaimed))
}

// ObserveStats sets the gauges from a store snapshot.
func (c *Collector) ObserveStats(s recgo.Stats) {
	c.records.Set(float64(s.RecordCount))
	c.tombstones.Set(float64(s.Tombstones))
	c.cacheSize.Set(float64(s.CacheSize))
	c.memory.Set(float64(s.ApproximateMemoryBytes))
}
