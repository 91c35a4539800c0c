package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/weavecache"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.Jitter(weavecache.Point{0, 0, 0}, 1)

	rng.Reset()
	v2 := rng.Jitter(weavecache.Point{0, 0, 0}, 1)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestRNG_Jitter(t *testing.T) {
	rng := NewRNG(4711)
	p := weavecache.Point{1, 2, 3}

	for range 100 {
		j := rng.Jitter(p, 0.25)
		for i := range p {
			assert.InDelta(t, p[i], j[i], 0.25)
		}
	}
	assert.Equal(t, weavecache.Point{1, 2, 3}, p)
}

func TestRNG_PhysicalPoint(t *testing.T) {
	rng := NewRNG(1)
	p := rng.PhysicalPoint(4, 50, -1, 1)

	assert.Equal(t, 50.0, p.Freq)
	require.Len(t, p.Params, 3)
	for _, v := range p.Params {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}
}

func TestComputer(t *testing.T) {
	c := NewComputer()

	r, err := c.Compute(weavecache.PhysicalPoint{Freq: 10, Params: []float64{1, 2}}, 4)
	require.NoError(t, err)

	assert.Equal(t, []float32{3, 4, 5, 6}, r.Power)
	assert.Equal(t, int64(16), r.SizeBytes())
	assert.Equal(t, int64(1), c.Calls())
	assert.Equal(t, int64(4), c.Bins())
	assert.Equal(t, int64(1), c.Live())

	r.Release()
	assert.True(t, r.Released())
	assert.Equal(t, int64(0), c.Live())
	assert.Panics(t, r.Release)

	_, err = c.Compute(weavecache.PhysicalPoint{Freq: 10, Params: []float64{1, 2}}, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Recomputed())
}

func TestComputer_FailAfter(t *testing.T) {
	c := NewComputer()
	c.FailAfter(1)

	_, err := c.Compute(weavecache.PhysicalPoint{Params: []float64{0}}, 1)
	require.NoError(t, err)

	_, err = c.Compute(weavecache.PhysicalPoint{Params: []float64{1}}, 1)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, int64(1), c.Calls())
}

func TestScenario_Sweep(t *testing.T) {
	sc, err := NewScenario(ScenarioConfig{Partitions: 2})
	require.NoError(t, err)

	visits := 0
	err = sc.Sweep(func(_ int, _ uint64, _ int, r weavecache.Retrieval[*Results]) error {
		visits++
		assert.False(t, r.Results.Released())
		return nil
	})
	require.NoError(t, err)

	// 8*6 semicoherent blocks, 2 partitions, 2 segments
	assert.Equal(t, 192, visits)

	require.NoError(t, sc.Close())
	for _, comp := range sc.Computers {
		assert.Equal(t, int64(0), comp.Live())
	}
}
