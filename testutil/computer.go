package testutil

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/weavecache"
)

// ErrInjected is returned by a Computer configured to fail.
var ErrInjected = errors.New("testutil: injected compute failure")

// Results is the payload produced by Computer: one fake power per frequency bin.
type Results struct {
	Freq  float64
	Power []float32

	owner    *Computer
	released atomic.Bool
}

var (
	_ weavecache.Sizer    = (*Results)(nil)
	_ weavecache.Releaser = (*Results)(nil)
)

// SizeBytes reports the memory held by the powers.
func (r *Results) SizeBytes() int64 {
	return int64(4 * len(r.Power))
}

// Release marks the results as released. Releasing twice panics.
func (r *Results) Release() {
	if !r.released.CompareAndSwap(false, true) {
		panic("testutil: results released twice")
	}
	if r.owner != nil {
		r.owner.live.Add(-1)
	}
}

// Released reports whether Release was called.
func (r *Results) Released() bool {
	return r.released.Load()
}

// Computer is a deterministic weavecache.Computer which counts its work.
// The power of bin j is the sum of the physical parameters plus j.
type Computer struct {
	calls atomic.Int64
	bins  atomic.Int64
	live  atomic.Int64

	mu        sync.Mutex
	failAfter int64
	seen      map[string]int
}

var _ weavecache.Computer[*Results] = (*Computer)(nil)

// NewComputer creates a Computer that never fails.
func NewComputer() *Computer {
	return &Computer{
		failAfter: -1,
		seen:      make(map[string]int),
	}
}

// FailAfter makes every Compute call after the first n fail with ErrInjected.
func (c *Computer) FailAfter(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAfter = n
}

// Compute produces results for nfreqs bins starting at phys.Freq.
func (c *Computer) Compute(phys weavecache.PhysicalPoint, nfreqs int) (*Results, error) {
	c.mu.Lock()
	if c.failAfter >= 0 && c.calls.Load() >= c.failAfter {
		c.mu.Unlock()
		return nil, ErrInjected
	}
	c.seen[key(phys)]++
	c.mu.Unlock()

	c.calls.Add(1)
	c.bins.Add(int64(nfreqs))
	c.live.Add(1)

	var base float64
	for _, v := range phys.Params {
		base += v
	}

	r := &Results{
		Freq:  phys.Freq,
		Power: make([]float32, nfreqs),
		owner: c,
	}
	for j := range r.Power {
		r.Power[j] = float32(base) + float32(j)
	}
	return r, nil
}

// Calls returns the number of successful Compute calls.
func (c *Computer) Calls() int64 { return c.calls.Load() }

// Bins returns the total number of frequency bins computed.
func (c *Computer) Bins() int64 { return c.bins.Load() }

// Live returns the number of computed results not yet released.
func (c *Computer) Live() int64 { return c.live.Load() }

// Recomputed returns the number of physical points computed more than once.
func (c *Computer) Recomputed() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, count := range c.seen {
		if count > 1 {
			n++
		}
	}
	return n
}

func key(phys weavecache.PhysicalPoint) string {
	return fmt.Sprintf("%v/%v", phys.Freq, phys.Params)
}
