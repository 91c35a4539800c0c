package testutil

import (
	"fmt"

	"github.com/hupe1980/weavecache"
	"github.com/hupe1980/weavecache/lattice"
)

// ScenarioConfig describes a synthetic semicoherent search. Zero fields take
// the defaults noted below.
type ScenarioConfig struct {
	// SemiCounts are the semicoherent points per dimension (default [8 6 16]).
	SemiCounts []int
	// SemiSpacing is the physical spacing of semicoherent points (default [0.5 0.5 DFreq]).
	SemiSpacing []float64
	// CohCounts are the coherent points per dimension (default [5 4 16]).
	CohCounts []int
	// CohSpacing is the physical spacing of coherent points (default [1 1 DFreq]).
	CohSpacing []float64
	// CohPad widens coherent frequency blocks on each side (default 2).
	CohPad int
	// DFreq is the frequency bin width (default 0.01).
	DFreq float64
	// Segments is the number of coherent segments (default 2).
	Segments int
	// Partitions is the number of frequency partitions (default 1).
	Partitions int
	// Options configure every cache.
	Options []weavecache.Option
}

// Scenario holds the collaborators, caches and queries of a synthetic search.
type Scenario struct {
	Config     ScenarioConfig
	Semi       *lattice.Regular
	Coh        *lattice.Regular
	SemiTransf *lattice.Affine
	CohTransf  []*lattice.Affine
	Computers  []*Computer
	Caches     []*weavecache.Cache[*Results]
	Queries    *weavecache.Queries
}

// NewScenario builds a scenario. Every segment gets its own computer and cache.
func NewScenario(cfg ScenarioConfig) (*Scenario, error) {
	if cfg.DFreq == 0 {
		cfg.DFreq = 0.01
	}
	if cfg.SemiCounts == nil {
		cfg.SemiCounts = []int{8, 6, 16}
	}
	if cfg.SemiSpacing == nil {
		cfg.SemiSpacing = []float64{0.5, 0.5, cfg.DFreq}
	}
	if cfg.CohCounts == nil {
		cfg.CohCounts = []int{5, 4, 16}
	}
	if cfg.CohSpacing == nil {
		cfg.CohSpacing = []float64{1, 1, cfg.DFreq}
	}
	if cfg.CohPad == 0 {
		cfg.CohPad = 2
	}
	if cfg.Segments == 0 {
		cfg.Segments = 2
	}
	if cfg.Partitions == 0 {
		cfg.Partitions = 1
	}

	semi, err := lattice.NewRegular(cfg.SemiCounts, 0)
	if err != nil {
		return nil, fmt.Errorf("semicoherent tiling: %w", err)
	}
	coh, err := lattice.NewRegular(cfg.CohCounts, cfg.CohPad)
	if err != nil {
		return nil, fmt.Errorf("coherent tiling: %w", err)
	}

	origin := weavecache.PhysicalPoint{
		Freq:   100,
		Params: make([]float64, len(cfg.SemiCounts)-1),
	}
	semiTransf, err := lattice.NewDiagonal(origin, cfg.SemiSpacing)
	if err != nil {
		return nil, fmt.Errorf("semicoherent transform: %w", err)
	}

	sc := &Scenario{
		Config:     cfg,
		Semi:       semi,
		Coh:        coh,
		SemiTransf: semiTransf,
	}

	for s := range cfg.Segments {
		cohTransf, err := lattice.NewDiagonal(origin, cfg.CohSpacing)
		if err != nil {
			return nil, fmt.Errorf("coherent transform: %w", err)
		}

		comp := NewComputer()
		c, err := weavecache.New[*Results](coh, cohTransf, semiTransf, comp, cfg.Options...)
		if err != nil {
			return nil, fmt.Errorf("cache for segment %d: %w", s, err)
		}

		sc.CohTransf = append(sc.CohTransf, cohTransf)
		sc.Computers = append(sc.Computers, comp)
		sc.Caches = append(sc.Caches, c)
	}

	sc.Queries, err = weavecache.NewQueries(semi, semiTransf, cfg.Segments, cfg.Partitions)
	if err != nil {
		return nil, fmt.Errorf("queries: %w", err)
	}

	return sc, nil
}

// Visit is called for every retrieval of a sweep.
type Visit func(partition int, semiIndex uint64, segment int, r weavecache.Retrieval[*Results]) error

// Sweep visits every frequency partition and semicoherent point in order,
// querying and retrieving every segment. visit may be nil.
func (sc *Scenario) Sweep(visit Visit) error {
	itr := sc.Semi.NewIterator()
	q := sc.Queries

	for p := range sc.Config.Partitions {
		itr.Reset()
		for itr.Next() {
			if err := q.Init(itr, itr.Index(), itr.Point()); err != nil {
				return err
			}
			for s, c := range sc.Caches {
				if err := c.Query(q, s); err != nil {
					return err
				}
			}

			_, nfreqs, err := q.Finalize(p, sc.Config.DFreq)
			if err != nil {
				return err
			}
			if nfreqs == 0 {
				continue
			}

			for s, c := range sc.Caches {
				r, err := c.Retrieve(q, s)
				if err != nil {
					return err
				}
				if visit != nil {
					if err := visit(p, itr.Index(), s, r); err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}

// Close closes every cache.
func (sc *Scenario) Close() error {
	for _, c := range sc.Caches {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}
