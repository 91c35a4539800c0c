package sweep

import (
	"fmt"
	"math"
	"sync"

	"github.com/hupe1980/weavecache"
)

// Powers are the coherent results of the synthetic computer: one power per
// frequency bin, starting at Freq.
type Powers struct {
	Freq   float64
	Values []float32

	pool *sync.Pool
}

var (
	_ weavecache.Sizer    = (*Powers)(nil)
	_ weavecache.Releaser = (*Powers)(nil)
)

// SizeBytes reports the memory held by the values.
func (p *Powers) SizeBytes() int64 { return int64(4 * cap(p.Values)) }

// Release returns the values to the computer's pool.
func (p *Powers) Release() {
	if p.pool != nil && p.Values != nil {
		v := p.Values[:0]
		p.pool.Put(&v)
	}
	p.Values = nil
}

// Signal is a synthetic source: power falls off as a Gaussian of the
// distance between a template and the signal, in physical units.
type Signal struct {
	Freq   float64
	Params []float64
	// Width is the physical distance at which power drops to 1/e.
	Width float64
	// Amplitude is the power at the signal.
	Amplitude float64
}

// Synthetic is a weavecache.Computer which evaluates a Signal at every
// frequency bin of a coherent block.
type Synthetic struct {
	signal Signal
	dfreq  float64
	pool   sync.Pool
}

var _ weavecache.Computer[*Powers] = (*Synthetic)(nil)

// NewSynthetic creates a synthetic computer for bins dfreq apart.
func NewSynthetic(signal Signal, dfreq float64) (*Synthetic, error) {
	if !(signal.Width > 0) {
		return nil, fmt.Errorf("sweep: signal width must be positive, got %v", signal.Width)
	}
	if !(dfreq > 0) {
		return nil, fmt.Errorf("sweep: frequency spacing must be positive, got %v", dfreq)
	}
	if signal.Amplitude == 0 {
		signal.Amplitude = 1
	}
	return &Synthetic{signal: signal, dfreq: dfreq}, nil
}

// Compute evaluates the signal for nfreqs bins starting at phys.Freq.
func (s *Synthetic) Compute(phys weavecache.PhysicalPoint, nfreqs int) (*Powers, error) {
	if len(phys.Params) != len(s.signal.Params) {
		return nil, fmt.Errorf("sweep: template has %d parameters, signal %d", len(phys.Params), len(s.signal.Params))
	}

	var d2 float64
	for i, v := range phys.Params {
		d := v - s.signal.Params[i]
		d2 += d * d
	}

	values := s.values(nfreqs)
	w2 := s.signal.Width * s.signal.Width
	for j := range values {
		df := phys.Freq + float64(j)*s.dfreq - s.signal.Freq
		values[j] = float32(s.signal.Amplitude * math.Exp(-(d2+df*df)/w2))
	}

	return &Powers{Freq: phys.Freq, Values: values, pool: &s.pool}, nil
}

func (s *Synthetic) values(n int) []float32 {
	if v, ok := s.pool.Get().(*[]float32); ok && cap(*v) >= n {
		return (*v)[:n]
	}
	return make([]float32, n)
}

// AccumulatePowers adds the bins of p matching the semicoherent block, which
// start at offset, to dst.
func AccumulatePowers(dst []float32, p *Powers, offset uint32) error {
	if int(offset)+len(dst) > len(p.Values) {
		return fmt.Errorf("sweep: %d bins from offset %d exceed %d coherent bins", len(dst), offset, len(p.Values))
	}
	for j, v := range p.Values[offset : int(offset)+len(dst)] {
		dst[j] += v
	}
	return nil
}
