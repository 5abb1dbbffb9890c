package recgo

import (
	"log/slog"
	"time"

	"github.com/hupe1980/recgo/cache"
)

type options struct {
	indexedFields       []string
	cacheCapacity       int
	cacheTTL            time.Duration
	queryCache          any // *cache.QueryCache[T], checked in New
	metricsCollector    MetricsCollector
	logger              *Logger
	slowQueryThreshold  time.Duration
	scanWorkers         int
	compactionThreshold float64
	now                 func() time.Time
}

// Option configures Store construction.
type Option func(*options)

// DefaultCompactionThreshold is the tombstone ratio above which a delete
// triggers compaction.
const DefaultCompactionThreshold = 0.5

// WithIndexedFields configures the fields that get an equality index.
// The primary key is always indexed. Filters on other fields fall back to
// a linear scan.
func WithIndexedFields(fields ...string) Option {
	return func(o *options) {
		o.indexedFields = append(o.indexedFields, fields...)
	}
}

// WithCacheCapacity sets the maximum number of cached query results.
// A capacity <= 0 disables the query cache. Default: 100.
func WithCacheCapacity(n int) Option {
	return func(o *options) {
		o.cacheCapacity = n
	}
}

// WithCacheTTL sets how long cached results are served. Default: 5 minutes.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = ttl
	}
}

// WithQueryCache injects the query cache, overriding WithCacheCapacity and
// WithCacheTTL. The cache is purged on every mutation of the store and must
// not be shared with other stores.
//
// Example:
//
//	qc := cache.New(cache.Config[Word]{Capacity: 1000, TTL: time.Minute})
//	s, _ := recgo.New(words, schema, recgo.WithQueryCache(qc))
func WithQueryCache[T any](c *cache.QueryCache[T]) Option {
	return func(o *options) {
		o.queryCache = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &recgo.BasicMetricsCollector{}
//	s, _ := recgo.New(words, schema, recgo.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Cache hits: %d\n", stats.QueryCount, stats.QueryCacheHits)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := recgo.NewJSONLogger(slog.LevelInfo)
//	s, _ := recgo.New(words, schema, recgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithSlowQueryThreshold logs queries slower than d at WARN level.
// Zero disables slow-query logging.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(o *options) {
		o.slowQueryThreshold = d
	}
}

// WithScanParallelism bounds the goroutines used for linear scans over
// large candidate sets. n <= 1 scans sequentially. Default: 1.
func WithScanParallelism(n int) Option {
	return func(o *options) {
		o.scanWorkers = n
	}
}

// WithCompactionThreshold sets the tombstone ratio above which a delete
// compacts the store. Zero disables automatic compaction. Default: 0.5.
func WithCompactionThreshold(ratio float64) Option {
	return func(o *options) {
		o.compactionThreshold = ratio
	}
}

// WithClock overrides the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		cacheCapacity:       cache.DefaultCapacity,
		cacheTTL:            cache.DefaultTTL,
		metricsCollector:    NoopMetricsCollector{},
		logger:              NoopLogger(),
		compactionThreshold: DefaultCompactionThreshold,
		now:                 time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}
