package metric

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/weavecache"
	"github.com/hupe1980/weavecache/testutil"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg, "test")
	require.NoError(t, err)

	c.RecordRetrieve(false, 12, time.Millisecond, nil)
	c.RecordRetrieve(true, 0, time.Microsecond, nil)
	c.RecordRetrieve(true, 0, time.Microsecond, nil)
	c.RecordRetrieve(false, 0, time.Microsecond, errors.New("boom"))
	c.RecordEviction(false)
	c.RecordEviction(true)
	c.RecordEviction(true)
	c.RecordSize(7)

	assert.Equal(t, 1.0, promtest.ToFloat64(c.retrievals.WithLabelValues("miss")))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.retrievals.WithLabelValues("hit")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.retrievals.WithLabelValues("error")))
	assert.Equal(t, 12.0, promtest.ToFloat64(c.bins))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.evictions.WithLabelValues("relevance")))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.evictions.WithLabelValues("forced")))
	assert.Equal(t, 7.0, promtest.ToFloat64(c.cachedItems))
	assert.Equal(t, 1, promtest.CollectAndCount(c.latency))
}

func TestPrometheusCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusCollector(reg, "")
	require.NoError(t, err)

	_, err = NewPrometheusCollector(reg, "")
	assert.Error(t, err)
}

func TestPrometheusCollector_Sweep(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg, "sweep")
	require.NoError(t, err)

	sc, err := testutil.NewScenario(testutil.ScenarioConfig{
		Segments: 1,
		Options:  []weavecache.Option{weavecache.WithMetricsCollector(c)},
	})
	require.NoError(t, err)
	require.NoError(t, sc.Sweep(nil))

	stats := sc.Caches[0].Stats()
	assert.Equal(t, float64(stats.Hits), promtest.ToFloat64(c.retrievals.WithLabelValues("hit")))
	assert.Equal(t, float64(stats.Misses), promtest.ToFloat64(c.retrievals.WithLabelValues("miss")))
	assert.Equal(t, float64(stats.Totals.Results), promtest.ToFloat64(c.bins))
	assert.Equal(t, float64(stats.Items), promtest.ToFloat64(c.cachedItems))
}
