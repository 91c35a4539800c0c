package lattice

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/weavecache"
)

// ErrInvalidTiling is returned for malformed tiling parameters.
var ErrInvalidTiling = errors.New("lattice: invalid tiling")

// Regular is a rectangular tiling with unit spacing. Dimension i holds
// counts[i] points at coordinates 0..counts[i]-1; the last dimension counts
// frequency bins. Every frequency block is widened by pad bins on each side.
type Regular struct {
	counts []int
	pad    int
	blocks uint64
}

var _ weavecache.Tiling = (*Regular)(nil)

// NewRegular creates a regular tiling.
func NewRegular(counts []int, pad int) (*Regular, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrInvalidTiling)
	}
	if pad < 0 {
		return nil, fmt.Errorf("%w: negative padding %d", ErrInvalidTiling, pad)
	}

	blocks := uint64(1)
	for i, c := range counts {
		if c <= 0 {
			return nil, fmt.Errorf("%w: dimension %d has %d points", ErrInvalidTiling, i, c)
		}
		if i < len(counts)-1 {
			blocks *= uint64(c)
		}
	}

	return &Regular{
		counts: append([]int(nil), counts...),
		pad:    pad,
		blocks: blocks,
	}, nil
}

// Dimensions returns the number of dimensions.
func (t *Regular) Dimensions() int { return len(t.counts) }

// LowestTiledDimension returns the first dimension with more than one point.
func (t *Regular) LowestTiledDimension() (int, error) {
	for i, c := range t.counts {
		if c > 1 || (i == len(t.counts)-1 && c+2*t.pad > 1) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no tiled dimension", ErrInvalidTiling)
}

// BoundingBox returns the extent of a lattice cell in dim, which is one unit.
func (t *Regular) BoundingBox(dim int) (float64, error) {
	if dim < 0 || dim >= len(t.counts) {
		return 0, fmt.Errorf("%w: dimension %d out of range [0,%d)", ErrInvalidTiling, dim, len(t.counts))
	}
	return 1, nil
}

// MinBlockPoints returns the number of points in every frequency block.
func (t *Regular) MinBlockPoints() (int, error) {
	return t.blockPoints(), nil
}

func (t *Regular) blockPoints() int {
	return t.counts[len(t.counts)-1] + 2*t.pad
}

// Blocks returns the number of frequency blocks.
func (t *Regular) Blocks() uint64 { return t.blocks }

// Points returns the total number of tiling points.
func (t *Regular) Points() uint64 { return t.blocks * uint64(t.blockPoints()) }

// NewLocator returns a locator finding the nearest frequency block.
func (t *Regular) NewLocator() (weavecache.Locator, error) {
	return &Locator{t: t}, nil
}

// NewIterator returns an iterator over the frequency blocks.
func (t *Regular) NewIterator() *Iterator {
	return &Iterator{
		t: t,
		k: make([]int, len(t.counts)-1),
	}
}

// block returns the bin indexes of a frequency block relative to freq.
func (t *Regular) block(freq float64) (left, right int32, err error) {
	l := math.Round(float64(-t.pad) - freq)
	r := math.Round(float64(t.counts[len(t.counts)-1]-1+t.pad) - freq)
	if math.IsNaN(l) || math.IsNaN(r) || l < math.MinInt32 || r > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: frequency %v out of range", ErrInvalidTiling, freq)
	}
	return int32(l), int32(r), nil
}

// Locator finds the nearest frequency block of a Regular tiling. Points
// beyond the tiling are mapped onto its boundary.
type Locator struct {
	t *Regular
}

var _ weavecache.Locator = (*Locator)(nil)

// NearestBlock returns the tiling point nearest to p with p's frequency, the
// sequential index of its block, and the block's bins relative to p.
func (l *Locator) NearestBlock(p weavecache.Point) (weavecache.Point, uint64, int32, int32, error) {
	n := len(l.t.counts)
	if len(p) != n {
		return nil, 0, 0, 0, fmt.Errorf("%w: point has %d dimensions, want %d", ErrDimensionMismatch, len(p), n)
	}

	nearest := make(weavecache.Point, n)
	var index uint64
	for i := 0; i < n-1; i++ {
		if math.IsNaN(p[i]) {
			return nil, 0, 0, 0, fmt.Errorf("%w: NaN coordinate in dimension %d", ErrDimensionMismatch, i)
		}
		k := int(max(0, min(math.Round(p[i]), float64(l.t.counts[i]-1))))
		nearest[i] = float64(k)
		index = index*uint64(l.t.counts[i]) + uint64(k)
	}
	nearest[n-1] = p[n-1]

	left, right, err := l.t.block(p[n-1])
	if err != nil {
		return nil, 0, 0, 0, err
	}

	return nearest, index, left, right, nil
}

// Iterator visits the frequency blocks of a Regular tiling in lexicographic
// order, dimension 0 slowest. Its point sits at frequency bin 0.
type Iterator struct {
	t       *Regular
	k       []int
	index   uint64
	started bool
	done    bool
}

var _ weavecache.Iterator = (*Iterator)(nil)

// Next advances to the next block and reports whether there is one.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if !it.started {
		it.started = true
		return true
	}

	for i := len(it.k) - 1; i >= 0; i-- {
		it.k[i]++
		if it.k[i] < it.t.counts[i] {
			it.index++
			return true
		}
		it.k[i] = 0
	}

	it.done = true
	return false
}

// Point returns the lattice coordinates of the current block's bin 0.
func (it *Iterator) Point() weavecache.Point {
	p := make(weavecache.Point, len(it.t.counts))
	for i, k := range it.k {
		p[i] = float64(k)
	}
	return p
}

// Index returns the 0-based sequential index of the current block.
func (it *Iterator) Index() uint64 { return it.index }

// Block returns the bins of the current block relative to bin 0.
func (it *Iterator) Block() (left, right int32, err error) {
	if !it.started || it.done {
		return 0, 0, fmt.Errorf("%w: iterator is not positioned on a block", ErrInvalidTiling)
	}
	return it.t.block(0)
}

// Reset rewinds the iterator to before the first block.
func (it *Iterator) Reset() {
	clear(it.k)
	it.index = 0
	it.started = false
	it.done = false
}
