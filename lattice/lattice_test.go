package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/weavecache"
)

func TestAffine_RoundTrip(t *testing.T) {
	origin := weavecache.PhysicalPoint{Freq: 100, Params: []float64{1, -2}}
	m := mat.NewDense(3, 3, []float64{
		2, 0.5, 0,
		0, 4, 0,
		0, 0, 10,
	})
	a, err := NewAffine(origin, m)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Dimensions())

	phys := weavecache.PhysicalPoint{Freq: 100.3, Params: []float64{2, -1.5}}
	p, err := a.PhysicalToLattice(phys)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.25, 2, 3}, []float64(p), 1e-9)

	back, err := a.LatticeToPhysical(p)
	require.NoError(t, err)
	assert.InDelta(t, phys.Freq, back.Freq, 1e-9)
	assert.InDeltaSlice(t, phys.Params, back.Params, 1e-9)

	ref := a.ReferencePoint()
	assert.Equal(t, origin, ref)
	ref.Params[0] = 42
	assert.Equal(t, 1.0, a.ReferencePoint().Params[0])
}

func TestAffine_Errors(t *testing.T) {
	origin := weavecache.PhysicalPoint{Params: []float64{0}}

	_, err := NewAffine(origin, mat.NewDense(2, 2, []float64{1, 1, 1, 1}))
	assert.ErrorIs(t, err, ErrDimensionMismatch, "frequency row mixes dimensions")

	_, err = NewAffine(origin, mat.NewDense(2, 2, []float64{1, 1, 0, 0}))
	assert.ErrorIs(t, err, ErrSingular)

	_, err = NewAffine(origin, mat.NewDense(3, 3, nil))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewDiagonal(origin, []float64{1, 0})
	assert.ErrorIs(t, err, ErrSingular)

	a, err := NewDiagonal(origin, []float64{1, 1})
	require.NoError(t, err)

	_, err = a.PhysicalToLattice(weavecache.PhysicalPoint{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = a.LatticeToPhysical(weavecache.Point{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRegular(t *testing.T) {
	tl, err := NewRegular([]int{1, 3, 4, 5}, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, tl.Dimensions())
	dim0, err := tl.LowestTiledDimension()
	require.NoError(t, err)
	assert.Equal(t, 1, dim0)

	n, err := tl.MinBlockPoints()
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, uint64(12), tl.Blocks())
	assert.Equal(t, uint64(108), tl.Points())

	bbox, err := tl.BoundingBox(2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, bbox)

	_, err = tl.BoundingBox(4)
	assert.ErrorIs(t, err, ErrInvalidTiling)
}

func TestRegular_Invalid(t *testing.T) {
	_, err := NewRegular(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidTiling)

	_, err = NewRegular([]int{2, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidTiling)

	_, err = NewRegular([]int{2, 2}, -1)
	assert.ErrorIs(t, err, ErrInvalidTiling)

	tl, err := NewRegular([]int{1, 1}, 0)
	require.NoError(t, err)
	_, err = tl.LowestTiledDimension()
	assert.ErrorIs(t, err, ErrInvalidTiling)
}

func TestIterator(t *testing.T) {
	tl, err := NewRegular([]int{2, 3, 4}, 1)
	require.NoError(t, err)

	it := tl.NewIterator()

	_, _, err = it.Block()
	require.Error(t, err, "not positioned")

	var points []weavecache.Point
	var indexes []uint64
	for it.Next() {
		points = append(points, it.Point())
		indexes = append(indexes, it.Index())

		left, right, err := it.Block()
		require.NoError(t, err)
		assert.Equal(t, int32(-1), left)
		assert.Equal(t, int32(4), right)
	}

	require.Len(t, points, 6)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5}, indexes)
	assert.Equal(t, weavecache.Point{0, 0, 0}, points[0])
	assert.Equal(t, weavecache.Point{0, 2, 0}, points[2])
	assert.Equal(t, weavecache.Point{1, 0, 0}, points[3])
	assert.False(t, it.Next())

	it.Reset()
	require.True(t, it.Next())
	assert.Equal(t, uint64(0), it.Index())
}

func TestLocator(t *testing.T) {
	tl, err := NewRegular([]int{3, 4, 10}, 2)
	require.NoError(t, err)

	loc, err := tl.NewLocator()
	require.NoError(t, err)

	nearest, index, left, right, err := loc.NearestBlock(weavecache.Point{1.4, 2.6, 3})
	require.NoError(t, err)
	assert.Equal(t, weavecache.Point{1, 3, 3}, nearest)
	assert.Equal(t, uint64(1*4+3), index)
	assert.Equal(t, int32(-5), left)
	assert.Equal(t, int32(8), right)

	// Points outside the tiling snap to its boundary.
	nearest, index, _, _, err = loc.NearestBlock(weavecache.Point{-3, 9, 0})
	require.NoError(t, err)
	assert.Equal(t, weavecache.Point{0, 3, 0}, nearest)
	assert.Equal(t, uint64(3), index)

	_, _, _, _, err = loc.NearestBlock(weavecache.Point{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
