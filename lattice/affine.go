package lattice

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/weavecache"
)

var (
	// ErrDimensionMismatch is returned when a point does not match the transform's dimensions.
	ErrDimensionMismatch = errors.New("lattice: dimension mismatch")

	// ErrSingular is returned when a transform matrix cannot be inverted.
	ErrSingular = errors.New("lattice: singular transform")
)

// Affine converts between physical coordinates and one lattice frame.
type Affine struct {
	n      int
	origin weavecache.PhysicalPoint
	fwd    *mat.Dense
	inv    *mat.Dense
}

var _ weavecache.Transform = (*Affine)(nil)

// NewAffine creates a transform mapping origin to the lattice origin and
// physical displacements to lattice displacements through m.
func NewAffine(origin weavecache.PhysicalPoint, m *mat.Dense) (*Affine, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrSingular)
	}

	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: matrix is %dx%d", ErrDimensionMismatch, r, c)
	}
	if len(origin.Params)+1 != r {
		return nil, fmt.Errorf("%w: origin has %d dimensions, matrix %d", ErrDimensionMismatch, len(origin.Params)+1, r)
	}
	for j := 0; j < r-1; j++ {
		if m.At(r-1, j) != 0 {
			return nil, fmt.Errorf("%w: frequency row depends on dimension %d", ErrDimensionMismatch, j)
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	return &Affine{
		n:      r,
		origin: origin.Clone(),
		fwd:    mat.DenseCopyOf(m),
		inv:    &inv,
	}, nil
}

// NewDiagonal creates an axis-aligned transform in which one lattice unit of
// dimension i spans spacing[i] physical units. The last spacing is the
// frequency bin width.
func NewDiagonal(origin weavecache.PhysicalPoint, spacing []float64) (*Affine, error) {
	n := len(spacing)
	if n == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrDimensionMismatch)
	}

	m := mat.NewDense(n, n, nil)
	for i, s := range spacing {
		if s == 0 {
			return nil, fmt.Errorf("%w: zero spacing in dimension %d", ErrSingular, i)
		}
		m.Set(i, i, 1/s)
	}

	return NewAffine(origin, m)
}

// Dimensions returns the number of dimensions.
func (a *Affine) Dimensions() int { return a.n }

// ReferencePoint returns the physical point at the lattice origin.
func (a *Affine) ReferencePoint() weavecache.PhysicalPoint {
	return a.origin.Clone()
}

// PhysicalToLattice converts a physical point to lattice coordinates.
func (a *Affine) PhysicalToLattice(phys weavecache.PhysicalPoint) (weavecache.Point, error) {
	if len(phys.Params)+1 != a.n {
		return nil, fmt.Errorf("%w: physical point has %d dimensions, want %d", ErrDimensionMismatch, len(phys.Params)+1, a.n)
	}

	d := make([]float64, a.n)
	for i, v := range phys.Params {
		d[i] = v - a.origin.Params[i]
	}
	d[a.n-1] = phys.Freq - a.origin.Freq

	out := mat.NewVecDense(a.n, nil)
	out.MulVec(a.fwd, mat.NewVecDense(a.n, d))

	p := make(weavecache.Point, a.n)
	for i := range p {
		p[i] = out.AtVec(i)
	}
	return p, nil
}

// LatticeToPhysical converts lattice coordinates to a physical point.
func (a *Affine) LatticeToPhysical(p weavecache.Point) (weavecache.PhysicalPoint, error) {
	if len(p) != a.n {
		return weavecache.PhysicalPoint{}, fmt.Errorf("%w: lattice point has %d dimensions, want %d", ErrDimensionMismatch, len(p), a.n)
	}

	out := mat.NewVecDense(a.n, nil)
	out.MulVec(a.inv, mat.NewVecDense(a.n, []float64(p.Clone())))

	phys := weavecache.PhysicalPoint{
		Freq:   a.origin.Freq + out.AtVec(a.n-1),
		Params: make([]float64, a.n-1),
	}
	for i := range phys.Params {
		phys.Params[i] = a.origin.Params[i] + out.AtVec(i)
	}
	return phys, nil
}
