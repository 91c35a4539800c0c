package weavecache

import (
	"fmt"
	"math"

	"github.com/hupe1980/weavecache/internal/partition"
)

// Queries holds the lookups issued for one semicoherent frequency block: one
// record per segment, each answered by that segment's Cache.
//
// A Queries value is reused for every semicoherent point of a sweep:
//
//	q.Init(itr, index, point)      // new semicoherent point
//	c[s].Query(q, s)               // for every segment s
//	q.Finalize(partition, dfreq)   // select a frequency partition
//	c[s].Retrieve(q, s)            // for every segment s
//
// Queries is not safe for concurrent use.
type Queries struct {
	ndim        int
	dim0        int
	nqueries    int
	npartitions uint32

	// Offsets which widen coherent blocks to enclose each frequency partition.
	cohPart *partition.Table

	cohIndex     []uint64 // 0 means not yet queried
	cohPhys      []PhysicalPoint
	cohLeft      []int32
	cohRight     []int32
	cohRelevance []float32

	semiTransf          Transform
	semiIndex           uint64
	semiPointDim0       float64
	semiPhys            PhysicalPoint
	semiLeft            int32
	semiRight           int32
	semiRelevance       float32
	semiRelevanceOffset float64

	initialized bool
	finalized   bool
	partition   uint32
	nfreqs      int
}

// NewQueries creates storage for nqueries lookups per semicoherent point, whose
// frequency blocks are split into npartitions partitions.
func NewQueries(semiTiling Tiling, semiTransf Transform, nqueries, npartitions int) (*Queries, error) {
	if semiTiling == nil {
		return nil, configErrorf("nil semicoherent tiling")
	}
	if semiTransf == nil {
		return nil, configErrorf("nil semicoherent transform")
	}
	if nqueries <= 0 {
		return nil, configErrorf("number of queries must be positive, got %d", nqueries)
	}
	if npartitions <= 0 || npartitions > math.MaxUint32 {
		return nil, configErrorf("number of partitions must be positive, got %d", npartitions)
	}

	ndim := semiTiling.Dimensions()
	if ndim <= 0 {
		return nil, configErrorf("semicoherent tiling has %d dimensions", ndim)
	}

	dim0, err := semiTiling.LowestTiledDimension()
	if err != nil {
		return nil, configErrorf("lowest tiled semicoherent dimension: %v", err)
	}
	if dim0 < 0 || dim0 >= ndim {
		return nil, configErrorf("lowest tiled dimension %d out of range [0,%d)", dim0, ndim)
	}

	// Semicoherent relevance is the left-most edge of a point's bounding box in dim0.
	bbox, err := semiTiling.BoundingBox(dim0)
	if err != nil {
		return nil, configErrorf("semicoherent bounding box: %v", err)
	}

	// Use the smallest block so coherent offsets never exceed semicoherent ones.
	minPoints, err := semiTiling.MinBlockPoints()
	if err != nil {
		return nil, configErrorf("semicoherent block statistics: %v", err)
	}
	if minPoints <= 0 {
		return nil, configErrorf("semicoherent frequency blocks must hold at least one point, got %d", minPoints)
	}

	cohPart, err := partition.NewTable(uint32(minPoints), uint32(npartitions))
	if err != nil {
		return nil, configErrorf("%v", err)
	}

	return &Queries{
		ndim:                ndim,
		dim0:                dim0,
		nqueries:            nqueries,
		npartitions:         uint32(npartitions),
		cohPart:             cohPart,
		cohIndex:            make([]uint64, nqueries),
		cohPhys:             make([]PhysicalPoint, nqueries),
		cohLeft:             make([]int32, nqueries),
		cohRight:            make([]int32, nqueries),
		cohRelevance:        make([]float32, nqueries),
		semiTransf:          semiTransf,
		semiRelevanceOffset: -0.5 * bbox,
	}, nil
}

// Init starts the queries for a new semicoherent point. itr supplies the
// point's frequency block and semiIndex its sequential block index.
func (q *Queries) Init(itr Iterator, semiIndex uint64, semiPoint Point) error {
	if itr == nil {
		return invariantErrorf("nil semicoherent iterator")
	}
	if len(semiPoint) != q.ndim {
		return invariantErrorf("semicoherent point has %d dimensions, want %d", len(semiPoint), q.ndim)
	}

	clear(q.cohIndex)
	q.initialized = false
	q.finalized = false
	q.nfreqs = 0

	q.semiIndex = semiIndex
	q.semiPointDim0 = semiPoint[q.dim0]

	phys, err := q.semiTransf.LatticeToPhysical(semiPoint)
	if err != nil {
		return fmt.Errorf("convert semicoherent point to physical: %w", err)
	}
	q.semiPhys = phys

	left, right, err := itr.Block()
	if err != nil {
		return fmt.Errorf("semicoherent frequency block: %w", err)
	}
	if left > right {
		return invariantErrorf("semicoherent frequency block [%d,%d] is empty", left, right)
	}
	q.semiLeft, q.semiRight = left, right

	q.semiRelevance = float32(q.semiPointDim0 + q.semiRelevanceOffset)
	q.initialized = true

	return nil
}

// Finalize selects frequency partition partitionIndex of the semicoherent
// block and widens every coherent block to enclose it. Physical frequencies
// are shifted by dfreq to the first point of each block.
//
// It returns the first physical point of the semicoherent partition and its
// number of frequency points. A partition with zero points must be skipped.
func (q *Queries) Finalize(partitionIndex int, dfreq float64) (PhysicalPoint, int, error) {
	if !q.initialized {
		return PhysicalPoint{}, 0, invariantErrorf("finalize before init")
	}
	if q.finalized {
		return PhysicalPoint{}, 0, invariantErrorf("queries already finalized for partition %d", q.partition)
	}
	if partitionIndex < 0 || partitionIndex >= int(q.npartitions) {
		return PhysicalPoint{}, 0, invariantErrorf("partition index %d out of range [0,%d)", partitionIndex, q.npartitions)
	}
	if !(dfreq >= 0) {
		return PhysicalPoint{}, 0, invariantErrorf("frequency spacing must be non-negative, got %v", dfreq)
	}
	for i, idx := range q.cohIndex {
		if idx == 0 {
			return PhysicalPoint{}, 0, &MissingQueryError{QueryIndex: i}
		}
	}

	semiNFreqs := uint32(q.semiRight - q.semiLeft + 1)
	semiPartLeft, semiPartRight, err := partition.Offsets(semiNFreqs, q.npartitions, uint32(partitionIndex))
	if err != nil {
		return PhysicalPoint{}, 0, translateError(err)
	}
	cohPartLeft, cohPartRight := q.cohPart.Offsets(partitionIndex)
	if cohPartLeft > semiPartLeft || semiPartRight > cohPartRight {
		return PhysicalPoint{}, 0, invariantErrorf("coherent partition offsets [%d,%d] do not enclose semicoherent offsets [%d,%d]",
			cohPartLeft, cohPartRight, semiPartLeft, semiPartRight)
	}

	q.partition = uint32(partitionIndex)
	q.finalized = true

	q.semiLeft += semiPartLeft
	q.semiRight += semiPartRight
	if q.semiRight < q.semiLeft {
		// Fewer points in the block than partitions
		return PhysicalPoint{}, 0, nil
	}
	q.nfreqs = int(q.semiRight - q.semiLeft + 1)

	for i := range q.cohIndex {
		q.cohLeft[i] += cohPartLeft
		q.cohRight[i] += cohPartRight
	}

	q.semiPhys.Freq += dfreq * float64(q.semiLeft)
	for i := range q.cohPhys {
		q.cohPhys[i].Freq += dfreq * float64(q.cohLeft[i])
	}

	return q.semiPhys.Clone(), q.nfreqs, nil
}

// Len returns the number of query records.
func (q *Queries) Len() int { return q.nqueries }

// Partitions returns the number of frequency partitions.
func (q *Queries) Partitions() int { return int(q.npartitions) }

// Partition returns the partition selected by the last Finalize.
func (q *Queries) Partition() int { return int(q.partition) }

// SemiIndex returns the sequential index of the current semicoherent block.
func (q *Queries) SemiIndex() uint64 { return q.semiIndex }

// SemiBlock returns the left/right-most indexes of the semicoherent block.
func (q *Queries) SemiBlock() (left, right int32) { return q.semiLeft, q.semiRight }

// SemiRelevance returns the relevance threshold of the current semicoherent point.
func (q *Queries) SemiRelevance() float32 { return q.semiRelevance }

// CohIndex returns the 1-based coherent index of record i, or 0 if unanswered.
func (q *Queries) CohIndex(i int) uint64 { return q.cohIndex[i] }

// CohBlock returns the left/right-most indexes of the coherent block of record i.
func (q *Queries) CohBlock(i int) (left, right int32) { return q.cohLeft[i], q.cohRight[i] }

// CohRelevance returns the relevance of record i.
func (q *Queries) CohRelevance(i int) float32 { return q.cohRelevance[i] }

// CohPhys returns the physical point of record i.
func (q *Queries) CohPhys(i int) PhysicalPoint { return q.cohPhys[i].Clone() }

// checkRecord validates record i for retrieval.
func (q *Queries) checkRecord(i int) error {
	if i < 0 || i >= q.nqueries {
		return invariantErrorf("query index %d out of range [0,%d)", i, q.nqueries)
	}
	if q.cohIndex[i] == 0 {
		return &MissingQueryError{QueryIndex: i}
	}
	if !q.finalized {
		return invariantErrorf("retrieve before finalize")
	}
	if q.nfreqs == 0 {
		return invariantErrorf("retrieve from empty partition %d", q.partition)
	}
	return nil
}
