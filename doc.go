// Package weavecache caches coherent results for a semicoherent lattice search.
//
// A semicoherent search sweeps the points of a coarse lattice. For every
// point and every segment it needs the result of an expensive computation
// at the nearest point of that segment's coherent lattice. Neighbouring
// semicoherent points share coherent points, so each coherent result is
// computed once and kept for as long as any point still to be visited can
// need it, then evicted.
//
// # Quick Start
//
//	c, _ := weavecache.New(cohTiling, cohTransf, semiTransf, computer)
//	q, _ := weavecache.NewQueries(semiTiling, semiTransf, 1, npartitions)
//
//	for p := range npartitions {
//	    for itr.Next() {
//	        q.Init(itr, itr.Index(), itr.Point())
//	        c.Query(q, 0)
//	        phys, nfreqs, _ := q.Finalize(p, dfreq)
//	        if nfreqs == 0 {
//	            continue
//	        }
//	        r, _ := c.Retrieve(q, 0)
//	        // r.Results[r.Offset:] matches phys.Freq onwards
//	    }
//	}
//
// # Relevance
//
// Every cached item carries a relevance: the largest coordinate, along the
// semicoherent lattice's lowest tiled dimension, of any semicoherent point it
// may serve. Every semicoherent point carries a threshold just below its own
// coordinate. Points must be visited in non-decreasing order of that
// coordinate within each frequency partition, and partitions in order; items
// whose relevance falls below the current threshold are then evicted.
//
// # Frequency Partitions
//
// Frequency blocks can be split into partitions which are swept one after the
// other to bound the memory of cached results. Partition i of a block of N
// points holds N/P points, plus one for the first N mod P partitions.
//
// # Resources
//
// Results implementing Sizer are accounted against a resource.Controller set
// with WithResourceController; results implementing Releaser are released on
// eviction and by Close.
package weavecache
