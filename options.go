package weavecache

import (
	"log/slog"

	"github.com/hupe1980/weavecache/resource"
)

type options struct {
	interpolation    bool
	maxSize          uint32
	gcExtra          uint32
	capacityHint     int
	metricsCollector MetricsCollector
	logger           *Logger
	resources        *resource.Controller
}

// Option configures a Cache.
type Option func(*options)

// WithInterpolation selects an interpolating search (the default).
//
// When interpolating, every semicoherent point is served by the nearest
// coherent frequency block found by the tiling's locator. Otherwise the
// coherent and semicoherent lattices coincide and each semicoherent block is
// its own coherent block.
func WithInterpolation(interpolation bool) Option {
	return func(o *options) {
		o.interpolation = interpolation
	}
}

// WithMaxSize bounds the number of cached items.
//
// When the cache is full, the least relevant item is evicted even if it may
// still be needed, which costs a recomputation later. 0 means unbounded: items
// are evicted only once they can no longer be relevant.
func WithMaxSize(maxSize uint32) Option {
	return func(o *options) {
		o.maxSize = maxSize
	}
}

// WithGCExtra sets how many additional no-longer-relevant items a single
// retrieval may evict beyond the first.
//
// Small values spread eviction work evenly over retrievals; large values
// release memory sooner.
func WithGCExtra(gcExtra uint32) Option {
	return func(o *options) {
		o.gcExtra = gcExtra
	}
}

// WithCapacityHint pre-sizes the internal table and queue.
func WithCapacityHint(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacityHint = n
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring retrievals.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &weavecache.BasicMetricsCollector{}
//	c, _ := weavecache.New(tiling, cohTransf, semiTransf, computer, weavecache.WithMetricsCollector(metrics))
//	// ... sweep ...
//	stats := metrics.GetStats()
//	fmt.Printf("hits: %d, misses: %d\n", stats.HitCount, stats.MissCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
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

// WithResourceController accounts the memory of cached results implementing
// Sizer against rc. Retrievals fail with ErrAllocationFailure when rc's limit
// would be exceeded.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		interpolation:    true,
		capacityHint:     64,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
