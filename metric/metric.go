// Package metric exports cache metrics to Prometheus.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/weavecache"
)

// PrometheusCollector implements weavecache.MetricsCollector with Prometheus
// metrics. It is safe to share between the caches of a sweep.
type PrometheusCollector struct {
	retrievals  *prometheus.CounterVec
	latency     prometheus.Histogram
	bins        prometheus.Counter
	evictions   *prometheus.CounterVec
	cachedItems prometheus.Gauge
}

var _ weavecache.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collector's metrics and registers them
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "weavecache"
	}

	c := &PrometheusCollector{
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Retrievals by result (hit, miss, error).",
		}, []string{"result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieve_duration_seconds",
			Help:      "Latency of retrievals, including computation on a miss.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		bins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computed_bins_total",
			Help:      "Frequency bins computed on misses.",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Evicted items by reason (relevance, forced).",
		}, []string{"reason"}),
		cachedItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_items",
			Help:      "Items held by the most recently updated cache.",
		}),
	}

	for _, col := range []prometheus.Collector{c.retrievals, c.latency, c.bins, c.evictions, c.cachedItems} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordRetrieve implements weavecache.MetricsCollector.
func (c *PrometheusCollector) RecordRetrieve(hit bool, nfreqs int, duration time.Duration, err error) {
	c.latency.Observe(duration.Seconds())

	switch {
	case err != nil:
		c.retrievals.WithLabelValues("error").Inc()
	case hit:
		c.retrievals.WithLabelValues("hit").Inc()
	default:
		c.retrievals.WithLabelValues("miss").Inc()
		c.bins.Add(float64(nfreqs))
	}
}

// RecordEviction implements weavecache.MetricsCollector.
func (c *PrometheusCollector) RecordEviction(forced bool) {
	reason := "relevance"
	if forced {
		reason = "forced"
	}
	c.evictions.WithLabelValues(reason).Inc()
}

// RecordSize implements weavecache.MetricsCollector.
func (c *PrometheusCollector) RecordSize(items int) {
	c.cachedItems.Set(float64(items))
}
