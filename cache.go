package weavecache

import (
	"fmt"
	"time"

	"github.com/hupe1980/weavecache/internal/bitmap"
	"github.com/hupe1980/weavecache/internal/cache"
	"github.com/hupe1980/weavecache/internal/queue"
	"github.com/hupe1980/weavecache/resource"
)

// Totals counts the frequency bins computed by a Cache.
type Totals struct {
	// Results is the number of frequency bins computed, including recomputations.
	Results uint64
	// Templates is the number of frequency bins computed for distinct coherent
	// blocks within the current frequency partition.
	Templates uint64
}

// Retrieval is the result of Cache.Retrieve.
type Retrieval[R any] struct {
	// Results are the coherent results for the frequency block. They remain
	// owned by the cache and are valid until evicted.
	Results R
	// Index is the 1-based sequential index of the coherent frequency block.
	Index uint64
	// Offset is the bin of Results matching the first semicoherent frequency.
	Offset uint32
	// Totals are the running computation counters after this retrieval.
	Totals Totals
}

// Stats is a snapshot of a Cache's state.
type Stats struct {
	Items           int
	QueueLen        int
	Hits            int64
	Misses          int64
	Evictions       int64
	ForcedEvictions int64
	MemoryBytes     int64
	Totals          Totals
}

type item[R any] struct {
	key       cache.Key
	relevance float32
	results   R
	size      int64
}

// Cache stores coherent results for one segment of a semicoherent search and
// evicts them once no semicoherent point still to be visited can need them.
//
// The sweep must visit frequency partitions in order, and within a partition
// semicoherent points in non-decreasing order of their lowest tiled
// coordinate. Under that order an item whose relevance falls below the
// current semicoherent relevance will never be requested again.
//
// Cache is not safe for concurrent use; use one Cache per goroutine.
type Cache[R any] struct {
	ndim               int
	dim0               int
	cohRelevanceOffset float64
	interpolation      bool
	maxSize            uint32
	gcExtra            uint32

	locator    Locator
	cohTransf  Transform
	semiTransf Transform
	computer   Computer[R]

	index     *cache.Table[*item[R]]
	relevance *queue.RelevanceQueue
	computed  *bitmap.ComputedSet

	totals          Totals
	evictions       int64
	forcedEvictions int64
	memoryBytes     int64

	metrics   MetricsCollector
	logger    *Logger
	resources *resource.Controller
}

// New creates a cache over the coherent tiling.
//
// cohTransf and semiTransf convert between physical coordinates and the
// coherent and semicoherent lattice frames. computer produces results for
// coherent frequency blocks which are not cached.
func New[R any](tiling Tiling, cohTransf, semiTransf Transform, computer Computer[R], optFns ...Option) (*Cache[R], error) {
	if tiling == nil {
		return nil, configErrorf("nil coherent tiling")
	}
	if cohTransf == nil || semiTransf == nil {
		return nil, configErrorf("nil coordinate transform")
	}
	if computer == nil {
		return nil, configErrorf("nil computer")
	}

	opts := applyOptions(optFns)

	ndim := tiling.Dimensions()
	if ndim <= 0 {
		return nil, configErrorf("coherent tiling has %d dimensions", ndim)
	}

	dim0, err := tiling.LowestTiledDimension()
	if err != nil {
		return nil, configErrorf("lowest tiled coherent dimension: %v", err)
	}
	if dim0 < 0 || dim0 >= ndim {
		return nil, configErrorf("lowest tiled dimension %d out of range [0,%d)", dim0, ndim)
	}

	offset, err := relevanceOffset(tiling, cohTransf, semiTransf, ndim, dim0)
	if err != nil {
		return nil, err
	}

	var locator Locator
	if opts.interpolation {
		locator, err = tiling.NewLocator()
		if err != nil {
			return nil, configErrorf("coherent locator: %v", err)
		}
		if locator == nil {
			return nil, configErrorf("nil coherent locator")
		}
	}

	c := &Cache[R]{
		ndim:               ndim,
		dim0:               dim0,
		cohRelevanceOffset: offset,
		interpolation:      opts.interpolation,
		maxSize:            opts.maxSize,
		gcExtra:            opts.gcExtra,
		locator:            locator,
		cohTransf:          cohTransf,
		semiTransf:         semiTransf,
		computer:           computer,
		index:              cache.NewTable[*item[R]](opts.capacityHint),
		relevance:          queue.New(opts.capacityHint),
		computed:           bitmap.NewComputedSet(),
		metrics:            opts.metricsCollector,
		logger:             opts.logger,
		resources:          opts.resources,
	}

	c.logger.LogCreate(ndim, dim0, offset, opts.interpolation, opts.maxSize, opts.gcExtra)

	return c, nil
}

// relevanceOffset returns how far a coherent point's relevance must extend
// along dim0 of the semicoherent frame: the largest semicoherent dim0
// displacement of any corner or edge midpoint of a coherent bounding box
// placed at the reference point.
func relevanceOffset(tiling Tiling, cohTransf, semiTransf Transform, ndim, dim0 int) (float64, error) {
	origin := cohTransf.ReferencePoint()

	cohOrigin, err := cohTransf.PhysicalToLattice(origin)
	if err != nil {
		return 0, configErrorf("reference point to coherent lattice: %v", err)
	}
	semiOrigin, err := semiTransf.PhysicalToLattice(origin)
	if err != nil {
		return 0, configErrorf("reference point to semicoherent lattice: %v", err)
	}
	if len(cohOrigin) != ndim || len(semiOrigin) != ndim {
		return 0, configErrorf("reference point has %d/%d dimensions, want %d", len(cohOrigin), len(semiOrigin), ndim)
	}

	bbox := make([]float64, ndim)
	for i := range bbox {
		if bbox[i], err = tiling.BoundingBox(i); err != nil {
			return 0, configErrorf("coherent bounding box in dimension %d: %v", i, err)
		}
	}

	sample := cohOrigin.Clone()
	maxDim0 := semiOrigin[dim0]

	var walk func(i int) error
	walk = func(i int) error {
		if i == ndim {
			semi, err := convertPoint(semiTransf, cohTransf, sample)
			if err != nil {
				return configErrorf("bounding box sample to semicoherent lattice: %v", err)
			}
			if len(semi) != ndim {
				return configErrorf("semicoherent sample has %d dimensions, want %d", len(semi), ndim)
			}
			maxDim0 = max(maxDim0, semi[dim0])
			return nil
		}

		centre := sample[i]
		for step := -1; step <= 1; step++ {
			sample[i] = centre - float64(step)*0.5*bbox[i]
			if err := walk(i + 1); err != nil {
				return err
			}
		}
		sample[i] = centre

		return nil
	}

	if err := walk(0); err != nil {
		return 0, err
	}

	return maxDim0 - semiOrigin[dim0], nil
}

// Query resolves record i of q to the coherent frequency block serving the
// current semicoherent point.
func (c *Cache[R]) Query(q *Queries, i int) error {
	if q == nil {
		return invariantErrorf("nil queries")
	}
	if i < 0 || i >= q.nqueries {
		return invariantErrorf("query index %d out of range [0,%d)", i, q.nqueries)
	}
	if !q.initialized {
		return invariantErrorf("query before init")
	}
	if q.finalized {
		return invariantErrorf("query after finalize")
	}
	if q.ndim != c.ndim || q.dim0 != c.dim0 {
		return configErrorf("queries have %d dimensions (lowest tiled %d), cache has %d (lowest tiled %d)",
			q.ndim, q.dim0, c.ndim, c.dim0)
	}

	cohPoint, err := c.cohTransf.PhysicalToLattice(q.semiPhys)
	if err != nil {
		return fmt.Errorf("convert semicoherent point to coherent lattice: %w", err)
	}

	nearest := cohPoint
	index := q.semiIndex
	left, right := q.semiLeft, q.semiRight

	if c.locator != nil {
		nearest, index, left, right, err = c.locator.NearestBlock(cohPoint)
		if err != nil {
			return fmt.Errorf("locate nearest coherent block: %w", err)
		}
		if left > right {
			return invariantErrorf("coherent frequency block [%d,%d] is empty", left, right)
		}
		if left > q.semiLeft || q.semiRight > right {
			return &EnclosureError{
				CohLeft:    left,
				CohRight:   right,
				SemiLeft:   q.semiLeft,
				SemiRight:  q.semiRight,
				SemiIndex:  q.semiIndex,
				QueryIndex: i,
			}
		}
	}

	phys, err := c.cohTransf.LatticeToPhysical(nearest)
	if err != nil {
		return fmt.Errorf("convert coherent point to physical: %w", err)
	}

	semiNearest, err := convertPoint(c.semiTransf, c.cohTransf, nearest)
	if err != nil {
		return fmt.Errorf("convert coherent point to semicoherent lattice: %w", err)
	}
	if len(semiNearest) <= c.dim0 {
		return invariantErrorf("semicoherent point has %d dimensions, want %d", len(semiNearest), c.ndim)
	}

	q.cohPhys[i] = phys
	q.cohLeft[i], q.cohRight[i] = left, right
	q.cohRelevance[i] = float32(max(q.semiPointDim0, semiNearest[c.dim0]) + c.cohRelevanceOffset)
	q.cohIndex[i] = index + 1

	return nil
}

// Retrieve returns the coherent results for record i of q, computing them if
// they are not cached. Items no longer relevant to the current semicoherent
// point are evicted before the retrieved item is stored.
func (c *Cache[R]) Retrieve(q *Queries, i int) (Retrieval[R], error) {
	start := time.Now()

	r, hit, nfreqs, err := c.retrieve(q, i)

	c.metrics.RecordRetrieve(hit, nfreqs, time.Since(start), err)
	c.metrics.RecordSize(c.index.Len())

	if err != nil && q != nil && i >= 0 && i < q.nqueries {
		c.logger.LogRetrieveError(q.partition, q.cohIndex[i], i, err)
	}

	return r, err
}

func (c *Cache[R]) retrieve(q *Queries, i int) (Retrieval[R], bool, int, error) {
	if q == nil {
		return Retrieval[R]{}, false, 0, invariantErrorf("nil queries")
	}
	if err := q.checkRecord(i); err != nil {
		return Retrieval[R]{}, false, 0, err
	}

	partition := q.partition
	if c.computed.Activate(partition) {
		c.logger.LogPartitionReset(partition)
	}

	key := cache.Key{Partition: partition, Index: q.cohIndex[i]}
	nfreqs := 0

	// The item leaves the table while collecting so it cannot be evicted.
	// Collecting before a miss is computed returns the memory of evicted
	// items to the controller ahead of the new reservation.
	it, hit := c.index.Extract(key)
	c.collect(partition, q.semiRelevance)

	if !hit {
		nfreqs = int(q.cohRight[i] - q.cohLeft[i] + 1)

		results, err := c.computer.Compute(q.cohPhys[i].Clone(), nfreqs)
		if err != nil {
			return Retrieval[R]{}, false, 0, fmt.Errorf("compute coherent results: %w", err)
		}

		var size int64
		if s, ok := any(results).(Sizer); ok {
			size = s.SizeBytes()
		}
		if err := c.resources.AcquireMemory(size); err != nil {
			release(results)
			return Retrieval[R]{}, false, 0, translateError(err)
		}
		c.memoryBytes += size

		it = &item[R]{
			key:       key,
			relevance: q.cohRelevance[i],
			results:   results,
			size:      size,
		}

		c.totals.Results += uint64(nfreqs)
		if c.computed.Mark(key.Index) {
			c.totals.Templates += uint64(nfreqs)
		}
	}

	it.relevance = max(it.relevance, q.cohRelevance[i])

	if err := c.index.Add(key, it); err != nil {
		c.drop(it)
		return Retrieval[R]{}, hit, nfreqs, translateError(err)
	}
	c.relevance.Push(queue.Entry{
		Partition: key.Partition,
		Relevance: it.relevance,
		Index:     key.Index,
	})

	return Retrieval[R]{
		Results: it.results,
		Index:   key.Index,
		Offset:  uint32(q.semiLeft - q.cohLeft[i]),
		Totals:  c.totals,
	}, hit, nfreqs, nil
}

// collect evicts items which are less relevant than the threshold, and the
// least relevant items while the cache is full.
//
// The queue may hold stale entries for items that were evicted or whose
// relevance was raised since; these are discarded on the way.
func (c *Cache[R]) collect(partition uint32, threshold float32) {
	var gc uint32
	for {
		full := c.maxSize > 0 && uint32(c.index.Len()) >= c.maxSize

		root, ok := c.relevance.Root()
		if !ok {
			break
		}
		if !full && !root.Before(partition, threshold) {
			break
		}

		key := cache.Key{Partition: root.Partition, Index: root.Index}
		if it, ok := c.index.Find(key); ok {
			if full || queue.Compare(key.Partition, it.relevance, partition, threshold) < 0 {
				if !full && gc > c.gcExtra {
					break
				}

				c.index.Remove(key)
				c.drop(it)

				c.evictions++
				if full {
					c.forcedEvictions++
				} else {
					gc++
				}
				c.metrics.RecordEviction(full)
				c.logger.LogEviction(key.Partition, key.Index, it.relevance, threshold, full)
			}
		}

		c.relevance.PopRoot()
	}
}

// drop releases an item's results and accounted memory.
func (c *Cache[R]) drop(it *item[R]) {
	release(it.results)
	c.resources.ReleaseMemory(it.size)
	c.memoryBytes -= it.size
}

func release(results any) {
	if r, ok := results.(Releaser); ok {
		r.Release()
	}
}

// Len returns the number of cached items.
func (c *Cache[R]) Len() int { return c.index.Len() }

// Totals returns the running computation counters.
func (c *Cache[R]) Totals() Totals { return c.totals }

// RelevanceOffset returns the offset added to coherent relevances.
func (c *Cache[R]) RelevanceOffset() float64 { return c.cohRelevanceOffset }

// Stats returns a snapshot of the cache's state.
func (c *Cache[R]) Stats() Stats {
	hits, misses := c.index.Stats()
	return Stats{
		Items:           c.index.Len(),
		QueueLen:        c.relevance.Len(),
		Hits:            hits,
		Misses:          misses,
		Evictions:       c.evictions,
		ForcedEvictions: c.forcedEvictions,
		MemoryBytes:     c.memoryBytes,
		Totals:          c.totals,
	}
}

// Close releases every cached item. The cache is empty but usable afterwards;
// totals are kept.
func (c *Cache[R]) Close() error {
	released := c.index.Len()

	c.index.Range(func(_ cache.Key, it *item[R]) bool {
		c.drop(it)
		return true
	})
	c.index.Clear()
	c.relevance.Reset()
	c.computed.Reset()

	c.logger.LogClose(released)

	return nil
}
