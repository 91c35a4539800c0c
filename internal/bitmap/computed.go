package bitmap

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// ComputedSet records which coherent indexes have been computed within the
// current partition generation.
//
// Coherent indexes are sparse 64-bit sequence numbers, so the set is backed
// by a 64-bit Roaring bitmap rather than a dense bitset.
type ComputedSet struct {
	rb        *roaring64.Bitmap
	partition uint32
	active    bool
}

// NewComputedSet creates an empty set with no active partition.
func NewComputedSet() *ComputedSet {
	return &ComputedSet{
		rb: roaring64.New(),
	}
}

// Activate makes partition the current generation. If it differs from the
// previous one, all recorded indexes are cleared and true is returned.
func (s *ComputedSet) Activate(partition uint32) bool {
	if s.active && s.partition == partition {
		return false
	}
	s.rb.Clear()
	s.partition = partition
	s.active = true
	return true
}

// Partition returns the active partition and whether one has been activated.
func (s *ComputedSet) Partition() (uint32, bool) {
	return s.partition, s.active
}

// Contains reports whether index has been computed.
func (s *ComputedSet) Contains(index uint64) bool {
	return s.rb.Contains(index)
}

// Mark records index as computed. It returns true if index was not yet recorded.
func (s *ComputedSet) Mark(index uint64) bool {
	return s.rb.CheckedAdd(index)
}

// Len returns the number of recorded indexes.
func (s *ComputedSet) Len() uint64 {
	return s.rb.GetCardinality()
}

// Reset clears the set and forgets the active partition.
func (s *ComputedSet) Reset() {
	s.rb.Clear()
	s.partition = 0
	s.active = false
}
