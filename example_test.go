package weavecache_test

import (
	"fmt"
	"log"

	"github.com/hupe1980/weavecache"
	"github.com/hupe1980/weavecache/lattice"
)

// Example demonstrates a one-segment sweep in which every coherent result is
// computed once.
func Example() {
	origin := weavecache.PhysicalPoint{Freq: 100, Params: []float64{0}}

	// Semicoherent points every 0.5, coherent points every 1.
	semi, err := lattice.NewRegular([]int{6, 8}, 0)
	if err != nil {
		log.Fatal(err)
	}
	semiTransf, err := lattice.NewDiagonal(origin, []float64{0.5, 0.1})
	if err != nil {
		log.Fatal(err)
	}
	coh, err := lattice.NewRegular([]int{4, 8}, 1)
	if err != nil {
		log.Fatal(err)
	}
	cohTransf, err := lattice.NewDiagonal(origin, []float64{1, 0.1})
	if err != nil {
		log.Fatal(err)
	}

	computer := weavecache.ComputerFunc[[]float32](func(phys weavecache.PhysicalPoint, nfreqs int) ([]float32, error) {
		return make([]float32, nfreqs), nil
	})

	c, err := weavecache.New[[]float32](coh, cohTransf, semiTransf, computer)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	q, err := weavecache.NewQueries(semi, semiTransf, 1, 1)
	if err != nil {
		log.Fatal(err)
	}

	itr := semi.NewIterator()
	for itr.Next() {
		if err := q.Init(itr, itr.Index(), itr.Point()); err != nil {
			log.Fatal(err)
		}
		if err := c.Query(q, 0); err != nil {
			log.Fatal(err)
		}
		if _, _, err := q.Finalize(0, 0.1); err != nil {
			log.Fatal(err)
		}
		if _, err := c.Retrieve(q, 0); err != nil {
			log.Fatal(err)
		}
	}

	stats := c.Stats()
	fmt.Printf("hits: %d, misses: %d, bins: %d\n", stats.Hits, stats.Misses, stats.Totals.Results)
	// Output: hits: 2, misses: 4, bins: 40
}

// ExampleWithMaxSize shows a bounded cache.
func ExampleWithMaxSize() {
	computer := weavecache.ComputerFunc[[]float32](func(_ weavecache.PhysicalPoint, nfreqs int) ([]float32, error) {
		return make([]float32, nfreqs), nil
	})

	tiling, _ := lattice.NewRegular([]int{16, 32}, 0)
	transf, _ := lattice.NewDiagonal(weavecache.PhysicalPoint{Params: []float64{0}}, []float64{1, 1})

	c, err := weavecache.New[[]float32](tiling, transf, transf, computer,
		weavecache.WithMaxSize(1024),
		weavecache.WithGCExtra(4),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	fmt.Println(c.Len())
	// Output: 0
}
