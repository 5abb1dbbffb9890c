package recgo

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/recgo/value"
)

// Logger wraps slog.Logger with recgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger

	// slow samples slow-query warnings so a hot slow query cannot flood
	// the log.
	slow *rate.Limiter
}

// DefaultSlowQueryLogInterval is the minimum spacing of slow-query warnings.
const DefaultSlowQueryLogInterval = time.Second

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
		slow:   rate.NewLimiter(rate.Every(DefaultSlowQueryLogInterval), 1),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithSlowQuerySampling returns a copy of l that emits at most one
// slow-query warning per interval. interval <= 0 logs every slow query.
func (l *Logger) WithSlowQuerySampling(interval time.Duration) *Logger {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Logger{
		Logger: l.Logger,
		slow:   rate.NewLimiter(limit, 1),
	}
}

// WithStore adds a store name field to the logger.
func (l *Logger) WithStore(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", name),
		slow:   l.slow,
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, key value.Value, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"key", key,
		)
	}
}

// LogUpdate logs an update operation.
func (l *Logger) LogUpdate(ctx context.Context, key value.Value, reindexed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "update completed",
			"key", key,
			"reindexed_fields", reindexed,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, key value.Value, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"key", key,
		)
	}
}

// LogQuery logs a query.
func (l *Logger) LogQuery(ctx context.Context, hash string, total int, cached bool, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"hash", hash,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"hash", hash,
		"total", total,
		"cached", cached,
		"duration", d,
	)
}

// LogSlowQuery logs a query that exceeded threshold. Calls are sampled.
func (l *Logger) LogSlowQuery(ctx context.Context, hash string, d, threshold time.Duration) {
	if l.slow != nil && !l.slow.Allow() {
		return
	}
	l.WarnContext(ctx, "slow query",
		"hash", hash,
		"duration", d,
		"threshold", threshold,
	)
}

// LogCompact logs a compaction.
func (l *Logger) LogCompact(ctx context.Context, reclaimed, live int, d time.Duration) {
	l.InfoContext(ctx, "compaction completed",
		"reclaimed", reclaimed,
		"live", live,
		"duration", d,
	)
}
