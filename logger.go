package weavecache

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with cache-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

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
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithSegment adds a segment field to the logger.
func (l *Logger) WithSegment(segment int) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", segment),
	}
}

// debugEnabled guards hot-path debug logging.
func (l *Logger) debugEnabled() bool {
	return l.Enabled(context.Background(), slog.LevelDebug)
}

// LogCreate logs cache construction.
func (l *Logger) LogCreate(ndim, dim0 int, relevanceOffset float64, interpolation bool, maxSize, gcExtra uint32) {
	l.Debug("cache created",
		"ndim", ndim,
		"dim0", dim0,
		"relevance_offset", relevanceOffset,
		"interpolation", interpolation,
		"max_size", maxSize,
		"gc_extra", gcExtra,
	)
}

// LogPartitionReset logs a reset of the computed set on partition change.
func (l *Logger) LogPartitionReset(partition uint32) {
	if !l.debugEnabled() {
		return
	}
	l.Debug("computed set reset",
		"partition", partition,
	)
}

// LogEviction logs the removal of a cached item.
func (l *Logger) LogEviction(partition uint32, index uint64, relevance, threshold float32, forced bool) {
	if !l.debugEnabled() {
		return
	}
	l.Debug("cache item evicted",
		"partition", partition,
		"index", index,
		"relevance", relevance,
		"threshold", threshold,
		"forced", forced,
	)
}

// LogRetrieveError logs a failed retrieval.
func (l *Logger) LogRetrieveError(partition uint32, index uint64, queryIndex int, err error) {
	l.Error("retrieve failed",
		"partition", partition,
		"index", index,
		"query_index", queryIndex,
		"error", err,
	)
}

// LogClose logs cache destruction.
func (l *Logger) LogClose(released int) {
	l.Debug("cache closed",
		"released", released,
	)
}
