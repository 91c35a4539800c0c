package sweep

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/weavecache"
)

// BlockIterator iterates over the frequency blocks of a semicoherent tiling
// in non-decreasing order of the lowest tiled coordinate.
type BlockIterator interface {
	weavecache.Iterator
	Next() bool
	Point() weavecache.Point
	Index() uint64
	Reset()
}

// Accumulator adds the coherent results r, starting at bin offset, to the
// semicoherent powers in dst.
type Accumulator[R any] func(dst []float32, r R, offset uint32) error

// Config configures a Sweeper.
type Config struct {
	// Partitions is the number of frequency partitions; it must match the queries.
	Partitions int
	// DFreq is the frequency bin width.
	DFreq float64
	// Parallel queries and retrieves the segments concurrently, one goroutine
	// per segment.
	Parallel bool
	// ProgressInterval throttles progress logs (default 5s).
	ProgressInterval time.Duration
}

type options struct {
	records *RecordWriter
	logger  *weavecache.Logger
}

// Option configures a Sweeper.
type Option func(*options)

// WithRecordWriter writes one record per visited block and partition.
func WithRecordWriter(w *RecordWriter) Option {
	return func(o *options) {
		o.records = w
	}
}

// WithLogger configures progress logging.
func WithLogger(logger *weavecache.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = weavecache.NoopLogger()
		}
		o.logger = logger
	}
}

// Summary describes a completed sweep.
type Summary struct {
	Partitions      int
	Points          uint64
	EmptyPartitions uint64
	Retrievals      uint64
	Records         int
	Best            Record
	Segments        []weavecache.Stats
	Duration        time.Duration
}

// Totals sums the computation counters of every segment.
func (s Summary) Totals() weavecache.Totals {
	var t weavecache.Totals
	for _, seg := range s.Segments {
		t.Results += seg.Totals.Results
		t.Templates += seg.Totals.Templates
	}
	return t
}

// HitRate returns the fraction of retrievals served from cache.
func (s Summary) HitRate() float64 {
	var hits, total int64
	for _, seg := range s.Segments {
		hits += seg.Hits
		total += seg.Hits + seg.Misses
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Sweeper runs a semicoherent sweep with one cache per segment.
type Sweeper[R any] struct {
	itr        BlockIterator
	queries    *weavecache.Queries
	caches     []*weavecache.Cache[R]
	accumulate Accumulator[R]
	cfg        Config
	opts       options

	retrieved []weavecache.Retrieval[R]
	power     []float32
}

// New creates a Sweeper. caches[s] answers query record s.
func New[R any](itr BlockIterator, queries *weavecache.Queries, caches []*weavecache.Cache[R], accumulate Accumulator[R], cfg Config, optFns ...Option) (*Sweeper[R], error) {
	if itr == nil || queries == nil || accumulate == nil {
		return nil, fmt.Errorf("%w: nil iterator, queries or accumulator", weavecache.ErrConfiguration)
	}
	if len(caches) != queries.Len() {
		return nil, fmt.Errorf("%w: %d caches for %d query records", weavecache.ErrConfiguration, len(caches), queries.Len())
	}
	if cfg.Partitions != queries.Partitions() {
		return nil, fmt.Errorf("%w: %d partitions, queries split %d", weavecache.ErrConfiguration, cfg.Partitions, queries.Partitions())
	}
	if !(cfg.DFreq >= 0) {
		return nil, fmt.Errorf("%w: negative frequency spacing %v", weavecache.ErrConfiguration, cfg.DFreq)
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 5 * time.Second
	}

	opts := options{logger: weavecache.NoopLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Sweeper[R]{
		itr:        itr,
		queries:    queries,
		caches:     caches,
		accumulate: accumulate,
		cfg:        cfg,
		opts:       opts,
		retrieved:  make([]weavecache.Retrieval[R], len(caches)),
	}, nil
}

// Run sweeps every partition. It stops at the first error or when ctx is
// canceled, returning the summary so far.
func (s *Sweeper[R]) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{Partitions: s.cfg.Partitions}
	progress := rate.Sometimes{Interval: s.cfg.ProgressInterval}

	err := s.run(ctx, &sum, &progress)

	sum.Duration = time.Since(start)
	sum.Segments = make([]weavecache.Stats, len(s.caches))
	for i, c := range s.caches {
		sum.Segments[i] = c.Stats()
	}
	if s.opts.records != nil {
		sum.Records = s.opts.records.Count()
	}

	if err != nil {
		return sum, err
	}

	s.opts.logger.Info("sweep finished",
		"points", sum.Points,
		"partitions", sum.Partitions,
		"duration", sum.Duration,
		"hit_rate", sum.HitRate(),
	)

	return sum, nil
}

func (s *Sweeper[R]) run(ctx context.Context, sum *Summary, progress *rate.Sometimes) error {
	q := s.queries

	for p := range s.cfg.Partitions {
		s.itr.Reset()
		for s.itr.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			semiIndex := s.itr.Index()
			if err := q.Init(s.itr, semiIndex, s.itr.Point()); err != nil {
				return fmt.Errorf("init semicoherent block %d: %w", semiIndex, err)
			}

			if err := s.forEachSegment(ctx, func(seg int) error {
				if err := s.caches[seg].Query(q, seg); err != nil {
					return fmt.Errorf("query segment %d: %w", seg, err)
				}
				return nil
			}); err != nil {
				return err
			}

			phys, nfreqs, err := q.Finalize(p, s.cfg.DFreq)
			if err != nil {
				return fmt.Errorf("finalize semicoherent block %d: %w", semiIndex, err)
			}
			if nfreqs == 0 {
				sum.EmptyPartitions++
				continue
			}

			if err := s.forEachSegment(ctx, func(seg int) error {
				r, err := s.caches[seg].Retrieve(q, seg)
				if err != nil {
					return fmt.Errorf("retrieve segment %d: %w", seg, err)
				}
				s.retrieved[seg] = r
				return nil
			}); err != nil {
				return err
			}

			rec, err := s.combine(p, semiIndex, phys, nfreqs)
			if err != nil {
				return err
			}

			sum.Points++
			sum.Retrievals += uint64(len(s.caches))
			if sum.Points == 1 || rec.PeakPower > sum.Best.PeakPower {
				sum.Best = rec
			}

			if s.opts.records != nil {
				if err := s.opts.records.Write(rec); err != nil {
					return fmt.Errorf("write record: %w", err)
				}
			}

			progress.Do(func() {
				s.opts.logger.Info("sweep progress",
					"partition", p,
					"semi_index", semiIndex,
					"points", sum.Points,
				)
			})
		}
	}

	return nil
}

// combine adds up the retrieved coherent results and finds the loudest bin.
func (s *Sweeper[R]) combine(partition int, semiIndex uint64, phys weavecache.PhysicalPoint, nfreqs int) (Record, error) {
	if cap(s.power) < nfreqs {
		s.power = make([]float32, nfreqs)
	}
	power := s.power[:nfreqs]
	clear(power)

	rec := Record{
		Partition:  partition,
		SemiIndex:  semiIndex,
		Freq:       phys.Freq,
		NFreqs:     nfreqs,
		Params:     phys.Params,
		CohIndexes: make([]uint64, len(s.retrieved)),
	}

	for seg, r := range s.retrieved {
		if err := s.accumulate(power, r.Results, r.Offset); err != nil {
			return Record{}, fmt.Errorf("accumulate segment %d: %w", seg, err)
		}
		rec.CohIndexes[seg] = r.Index
	}

	for j, v := range power {
		if j == 0 || v > rec.PeakPower {
			rec.PeakBin, rec.PeakPower = j, v
		}
	}
	rec.PeakFreq = phys.Freq + float64(rec.PeakBin)*s.cfg.DFreq

	return rec, nil
}

func (s *Sweeper[R]) forEachSegment(ctx context.Context, fn func(seg int) error) error {
	if !s.cfg.Parallel || len(s.caches) == 1 {
		for seg := range s.caches {
			if err := fn(seg); err != nil {
				return err
			}
		}
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	for seg := range s.caches {
		g.Go(func() error {
			return fn(seg)
		})
	}
	return g.Wait()
}
