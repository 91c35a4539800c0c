package weavecache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting cache metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see package metric).
type MetricsCollector interface {
	// RecordRetrieve is called after each retrieval.
	// hit reports whether results were found in the cache, nfreqs is the number of
	// frequency bins computed on a miss (0 on a hit), duration is the total time taken.
	RecordRetrieve(hit bool, nfreqs int, duration time.Duration, err error)

	// RecordEviction is called for every cached item removed.
	// forced is true when the item was removed because the cache was full.
	RecordEviction(forced bool)

	// RecordSize is called after each retrieval with the number of cached items.
	RecordSize(items int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRetrieve(bool, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEviction(bool)                            {}
func (NoopMetricsCollector) RecordSize(int)                                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
// It is safe to share between the caches of a sweep.
type BasicMetricsCollector struct {
	RetrieveCount      atomic.Int64
	RetrieveErrors     atomic.Int64
	RetrieveTotalNanos atomic.Int64
	HitCount           atomic.Int64
	MissCount          atomic.Int64
	ComputedFreqs      atomic.Int64
	EvictionCount      atomic.Int64
	ForcedEvictions    atomic.Int64
	MaxSize            atomic.Int64
}

// RecordRetrieve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRetrieve(hit bool, nfreqs int, duration time.Duration, err error) {
	b.RetrieveCount.Add(1)
	b.RetrieveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RetrieveErrors.Add(1)
		return
	}
	if hit {
		b.HitCount.Add(1)
	} else {
		b.MissCount.Add(1)
		b.ComputedFreqs.Add(int64(nfreqs))
	}
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(forced bool) {
	b.EvictionCount.Add(1)
	if forced {
		b.ForcedEvictions.Add(1)
	}
}

// RecordSize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSize(items int) {
	n := int64(items)
	for {
		cur := b.MaxSize.Load()
		if n <= cur || b.MaxSize.CompareAndSwap(cur, n) {
			return
		}
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RetrieveCount:    b.RetrieveCount.Load(),
		RetrieveErrors:   b.RetrieveErrors.Load(),
		RetrieveAvgNanos: b.getAvgRetrieveNanos(),
		HitCount:         b.HitCount.Load(),
		MissCount:        b.MissCount.Load(),
		ComputedFreqs:    b.ComputedFreqs.Load(),
		EvictionCount:    b.EvictionCount.Load(),
		ForcedEvictions:  b.ForcedEvictions.Load(),
		MaxSize:          b.MaxSize.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRetrieveNanos() int64 {
	count := b.RetrieveCount.Load()
	if count == 0 {
		return 0
	}
	return b.RetrieveTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RetrieveCount    int64
	RetrieveErrors   int64
	RetrieveAvgNanos int64
	HitCount         int64
	MissCount        int64
	ComputedFreqs    int64
	EvictionCount    int64
	ForcedEvictions  int64
	MaxSize          int64
}
