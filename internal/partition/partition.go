// Package partition splits a block of frequency points into contiguous,
// nearly-equal sub-ranges.
package partition

import (
	"errors"
	"fmt"
)

// ErrInvalidPartitions is returned when the partition count or index is out of range.
var ErrInvalidPartitions = errors.New("invalid partitions")

// Offsets returns the left/right-most index offsets which select partition
// index out of npartitions partitions of a block of n points.
//
// The first n mod npartitions partitions hold one point more than the rest.
// left is the number of points before the partition; right is the negated
// number of points after it. Adding them to the left/right-most indexes of
// the block selects the partition; if n < npartitions some partitions are
// empty, i.e. the adjusted right index is less than the adjusted left one.
func Offsets(n, npartitions, index uint32) (left, right int32, err error) {
	if npartitions == 0 {
		return 0, 0, fmt.Errorf("%w: zero partitions", ErrInvalidPartitions)
	}
	if index >= npartitions {
		return 0, 0, fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidPartitions, index, npartitions)
	}

	minSize := n / npartitions
	excess := n - npartitions*minSize

	size := minSize
	if index < excess {
		size++
	}

	l := int64(index)*int64(minSize) + int64(min(index, excess))
	r := l + int64(size) - int64(n)

	return int32(l), int32(r), nil
}

// Table holds precomputed offsets for every partition of a block.
type Table struct {
	n     uint32
	left  []int32
	right []int32
}

// NewTable computes offsets for all npartitions partitions of a block of n points.
func NewTable(n, npartitions uint32) (*Table, error) {
	if npartitions == 0 {
		return nil, fmt.Errorf("%w: zero partitions", ErrInvalidPartitions)
	}

	t := &Table{
		n:     n,
		left:  make([]int32, npartitions),
		right: make([]int32, npartitions),
	}
	for i := range npartitions {
		l, r, err := Offsets(n, npartitions, i)
		if err != nil {
			return nil, err
		}
		t.left[i], t.right[i] = l, r
	}
	return t, nil
}

// Len returns the number of partitions.
func (t *Table) Len() int { return len(t.left) }

// Points returns the block size the table was computed for.
func (t *Table) Points() uint32 { return t.n }

// Offsets returns the offsets of partition i.
func (t *Table) Offsets(i int) (left, right int32) {
	return t.left[i], t.right[i]
}

// Size returns the number of points in partition i.
func (t *Table) Size(i int) int {
	return int(t.n) + int(t.right[i]) - int(t.left[i])
}
