package bitmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputedSet_MarkOnce(t *testing.T) {
	s := NewComputedSet()
	assert.True(t, s.Activate(0))

	assert.False(t, s.Contains(42))
	assert.True(t, s.Mark(42))
	assert.True(t, s.Contains(42))
	assert.False(t, s.Mark(42))

	// Large sparse indexes.
	assert.True(t, s.Mark(math.MaxUint64-1))
	assert.True(t, s.Contains(math.MaxUint64-1))
	assert.Equal(t, uint64(2), s.Len())
}

func TestComputedSet_PartitionChangeClears(t *testing.T) {
	s := NewComputedSet()

	_, active := s.Partition()
	assert.False(t, active)

	assert.True(t, s.Activate(3))
	s.Mark(1)
	s.Mark(2)

	// Same partition keeps the bits.
	assert.False(t, s.Activate(3))
	assert.True(t, s.Contains(1))

	// New partition clears them.
	assert.True(t, s.Activate(4))
	assert.False(t, s.Contains(1))
	assert.Equal(t, uint64(0), s.Len())

	p, active := s.Partition()
	assert.True(t, active)
	assert.Equal(t, uint32(4), p)
}

func TestComputedSet_FirstActivateOfZero(t *testing.T) {
	s := NewComputedSet()
	s.Mark(9)

	// The zero partition is distinct from "no partition yet".
	assert.True(t, s.Activate(0))
	assert.False(t, s.Contains(9))

	s.Mark(9)
	s.Reset()
	assert.False(t, s.Contains(9))
	_, active := s.Partition()
	assert.False(t, active)
}
