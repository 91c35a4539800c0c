// Package lattice provides synthetic collaborators for weavecache: a regular
// rectangular tiling whose last dimension is frequency, an iterator over its
// frequency blocks, a nearest-block locator and affine coordinate transforms.
//
// Lattice coordinates are integers at tiling points: point k of dimension i
// has coordinate k, and frequency is measured in bins. Physical points map to
// lattice coordinates through an affine transform,
//
//	lattice = M * (phys - origin)
//
// where phys is the vector [Params..., Freq]. The frequency row of M must
// depend on frequency only, so that coherent and semicoherent frames share
// frequency bins.
//
// The package carries no physics; it exists to exercise the cache end-to-end.
package lattice
