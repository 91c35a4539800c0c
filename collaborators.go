package weavecache

// Point is a point in a lattice coordinate frame.
type Point []float64

// Clone returns a copy of p.
func (p Point) Clone() Point {
	if p == nil {
		return nil
	}
	c := make(Point, len(p))
	copy(c, p)
	return c
}

// PhysicalPoint is a point in physical parameter space.
//
// Freq is the frequency of the first point of a frequency block; Params holds
// every other physical parameter and is opaque to the cache.
type PhysicalPoint struct {
	Freq   float64
	Params []float64
}

// Clone returns a deep copy of p.
func (p PhysicalPoint) Clone() PhysicalPoint {
	c := PhysicalPoint{Freq: p.Freq}
	if p.Params != nil {
		c.Params = make([]float64, len(p.Params))
		copy(c.Params, p.Params)
	}
	return c
}

// Tiling describes a parameter-space lattice tiling.
//
// The last dimension is frequency; points sharing all other coordinates form
// a frequency block.
type Tiling interface {
	// Dimensions returns the number of parameter-space dimensions.
	Dimensions() int
	// LowestTiledDimension returns the slowest-varying tiled dimension.
	LowestTiledDimension() (int, error)
	// BoundingBox returns the extent of a lattice cell's bounding box in dim.
	BoundingBox(dim int) (float64, error)
	// MinBlockPoints returns the smallest number of points in any frequency block.
	MinBlockPoints() (int, error)
	// NewLocator returns a nearest-neighbour locator over the tiling.
	NewLocator() (Locator, error)
}

// Locator finds the frequency block nearest to a point.
type Locator interface {
	// NearestBlock returns the lattice point nearest to p, the sequential index
	// of its frequency block, and the left/right-most indexes of the block
	// relative to p's frequency.
	NearestBlock(p Point) (nearest Point, index uint64, left, right int32, err error)
}

// Iterator exposes the frequency block of the current point of a tiling iteration.
type Iterator interface {
	// Block returns the left/right-most indexes of the current frequency block.
	Block() (left, right int32, err error)
}

// Transform converts between physical coordinates and one lattice frame.
type Transform interface {
	// ReferencePoint returns a physical point far from any parameter-space boundary.
	ReferencePoint() PhysicalPoint
	// PhysicalToLattice converts a physical point to lattice coordinates.
	PhysicalToLattice(phys PhysicalPoint) (Point, error)
	// LatticeToPhysical converts lattice coordinates to a physical point.
	LatticeToPhysical(p Point) (PhysicalPoint, error)
}

// Computer performs the expensive coherent computation for one frequency block.
type Computer[R any] interface {
	// Compute returns results for nfreqs frequency bins starting at phys.Freq.
	Compute(phys PhysicalPoint, nfreqs int) (R, error)
}

// ComputerFunc adapts a function to the Computer interface.
type ComputerFunc[R any] func(phys PhysicalPoint, nfreqs int) (R, error)

// Compute calls f.
func (f ComputerFunc[R]) Compute(phys PhysicalPoint, nfreqs int) (R, error) {
	return f(phys, nfreqs)
}

// Sizer is implemented by results that report their memory footprint.
// Sized results are accounted against the cache's resource controller.
type Sizer interface {
	SizeBytes() int64
}

// Releaser is implemented by results that hold resources to free on eviction.
type Releaser interface {
	Release()
}

// convertPoint converts p from the frame of from into the frame of to,
// passing through physical coordinates.
func convertPoint(to, from Transform, p Point) (Point, error) {
	phys, err := from.LatticeToPhysical(p)
	if err != nil {
		return nil, err
	}
	return to.PhysicalToLattice(phys)
}
