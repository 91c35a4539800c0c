package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hupe1980/weavecache"
	"github.com/hupe1980/weavecache/config"
	"github.com/hupe1980/weavecache/lattice"
	"github.com/hupe1980/weavecache/resource"
	"github.com/hupe1980/weavecache/sweep"
)

// search holds the collaborators of one synthetic run.
type search struct {
	semi    *lattice.Regular
	queries *weavecache.Queries
	caches  []*weavecache.Cache[*sweep.Powers]
}

func newSearch(cfg *config.Config, logger *weavecache.Logger, rc *resource.Controller, mc weavecache.MetricsCollector) (*search, error) {
	sc := cfg.Search
	ndim := len(sc.SemiCounts)
	origin := weavecache.PhysicalPoint{
		Freq:   sc.Origin[ndim-1],
		Params: append([]float64(nil), sc.Origin[:ndim-1]...),
	}

	semi, err := lattice.NewRegular(sc.SemiCounts, 0)
	if err != nil {
		return nil, fmt.Errorf("semicoherent tiling: %w", err)
	}
	semiTransf, err := lattice.NewDiagonal(origin, sc.SemiSpacing)
	if err != nil {
		return nil, fmt.Errorf("semicoherent transform: %w", err)
	}
	coh, err := lattice.NewRegular(sc.CohCounts, sc.CohPad)
	if err != nil {
		return nil, fmt.Errorf("coherent tiling: %w", err)
	}

	computer, err := sweep.NewSynthetic(sweep.Signal{
		Freq:      cfg.Signal.Freq,
		Params:    cfg.Signal.Params,
		Width:     cfg.Signal.Width,
		Amplitude: cfg.Signal.Amplitude,
	}, sc.DFreq())
	if err != nil {
		return nil, err
	}

	s := &search{semi: semi}
	for seg := range sc.Segments {
		cohTransf, err := lattice.NewDiagonal(origin, sc.CohSpacing)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("coherent transform: %w", err)
		}

		c, err := weavecache.New[*sweep.Powers](coh, cohTransf, semiTransf, computer,
			weavecache.WithInterpolation(cfg.Cache.Interpolation),
			weavecache.WithMaxSize(cfg.Cache.MaxSize),
			weavecache.WithGCExtra(cfg.Cache.GCExtra),
			weavecache.WithCapacityHint(cfg.Cache.CapacityHint),
			weavecache.WithLogger(logger.WithSegment(seg)),
			weavecache.WithMetricsCollector(mc),
			weavecache.WithResourceController(rc),
		)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("cache for segment %d: %w", seg, err)
		}
		s.caches = append(s.caches, c)
	}

	s.queries, err = weavecache.NewQueries(semi, semiTransf, sc.Segments, sc.Partitions)
	if err != nil {
		s.close()
		return nil, err
	}

	return s, nil
}

func (s *search) close() {
	for _, c := range s.caches {
		_ = c.Close()
	}
}

func newLogger(cfg config.LoggingConfig) (*weavecache.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	var logger *weavecache.Logger
	if strings.EqualFold(cfg.Format, "json") {
		logger = weavecache.NewJSONLogger(level)
	} else {
		logger = weavecache.NewTextLogger(level)
	}
	slog.SetDefault(logger.Logger)

	return logger, nil
}

func printSummary(w io.Writer, sum sweep.Summary, recordBytes int64, rc *resource.Controller) {
	totals := sum.Totals()

	fmt.Fprintf(w, "points: %d in %d partitions (%d empty)\n", sum.Points, sum.Partitions, sum.EmptyPartitions)
	fmt.Fprintf(w, "retrievals: %d, hit rate %.1f%%\n", sum.Retrievals, 100*sum.HitRate())
	fmt.Fprintf(w, "computed bins: %d, unique: %d\n", totals.Results, totals.Templates)
	for i, seg := range sum.Segments {
		fmt.Fprintf(w, "segment %d: hits %d, misses %d, evictions %d (forced %d), cached %d\n",
			i, seg.Hits, seg.Misses, seg.Evictions, seg.ForcedEvictions, seg.Items)
	}
	if sum.Records > 0 {
		fmt.Fprintf(w, "records: %d (%d bytes)\n", sum.Records, recordBytes)
	}
	fmt.Fprintf(w, "peak memory: %d bytes\n", rc.PeakMemoryUsage())
	if sum.Points > 0 {
		fmt.Fprintf(w, "peak: power %.4f at freq %.6f params %v\n", sum.Best.PeakPower, sum.Best.PeakFreq, sum.Best.Params)
	}
	fmt.Fprintf(w, "duration: %s\n", sum.Duration)
}
