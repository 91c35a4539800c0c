package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/weavecache"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Jitter returns a copy of p with every coordinate moved by a uniform
// random amount in [-scale, scale).
func (r *RNG) Jitter(p weavecache.Point, scale float64) weavecache.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := p.Clone()
	for i := range out {
		out[i] += (2*r.rand.Float64() - 1) * scale
	}
	return out
}

// PhysicalPoint returns a random physical point with ndim-1 parameters in
// [minVal, maxVal) and frequency freq.
func (r *RNG) PhysicalPoint(ndim int, freq, minVal, maxVal float64) weavecache.PhysicalPoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := weavecache.PhysicalPoint{
		Freq:   freq,
		Params: make([]float64, ndim-1),
	}
	span := maxVal - minVal
	for i := range p.Params {
		p.Params[i] = minVal + r.rand.Float64()*span
	}
	return p
}
