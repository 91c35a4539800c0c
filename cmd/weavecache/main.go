// Command weavecache runs a synthetic semicoherent search over coherent result
// caches and reports how much coherent work the caches saved.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/weavecache"
	"github.com/hupe1980/weavecache/codec"
	"github.com/hupe1980/weavecache/config"
	"github.com/hupe1980/weavecache/internal/partition"
	"github.com/hupe1980/weavecache/metric"
	"github.com/hupe1980/weavecache/resource"
	"github.com/hupe1980/weavecache/sweep"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "weavecache",
		Usage: "Coherent result caching for semicoherent lattice searches",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run a synthetic search and print a summary",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to a YAML config file",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write records to this file",
					},
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Serve Prometheus metrics on this address",
					},
				},
			},
			{
				Name:      "partitions",
				Usage:     "Print how a frequency block of N points splits into P partitions",
				ArgsUsage: "N P",
				Action:    partitionsCommand,
			},
			{
				Name:      "inspect",
				Usage:     "Summarize a record file written by run",
				ArgsUsage: "FILE",
				Action:    inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "codec",
						Usage: "Record codec (" + strings.Join(codec.Names(), ", ") + ")",
						Value: codec.Default.Name(),
					},
					&cli.StringFlag{
						Name:  "compression",
						Usage: "Record compression (none, lz4, zstd)",
						Value: "none",
					},
				},
			},
		},
	}
}

func runCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("output") {
		cfg.Output.Path = c.String("output")
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = c.String("metrics-addr")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   cfg.Resource.MemoryLimitBytes,
		IOLimitBytesPerSec: cfg.Resource.IOLimitBytesPerSec,
	})

	reg := prometheus.NewRegistry()
	var mc weavecache.MetricsCollector = weavecache.NoopMetricsCollector{}
	if cfg.Metrics.Enabled {
		pc, err := metric.NewPrometheusCollector(reg, "weavecache")
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		mc = pc
	}

	s, err := newSearch(cfg, logger, rc, mc)
	if err != nil {
		return err
	}
	defer s.close()

	var opts []sweep.Option
	opts = append(opts, sweep.WithLogger(logger))

	var records *sweep.RecordWriter
	if cfg.Output.Path != "" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()

		cd, _ := codec.ByName(cfg.Output.Codec)
		compression, err := sweep.ParseCompression(cfg.Output.Compression)
		if err != nil {
			return err
		}
		records, err = sweep.NewRecordWriter(ctx, f, cd, compression, cfg.Output.CompressionLevel, rc)
		if err != nil {
			return err
		}
		// Flushes what was written if the sweep fails; a no-op after the
		// checked Close below.
		defer func() { _ = records.Close() }()
		opts = append(opts, sweep.WithRecordWriter(records))
	}

	sweeper, err := sweep.New(s.semi.NewIterator(), s.queries, s.caches, sweep.AccumulatePowers, sweep.Config{
		Partitions:       cfg.Search.Partitions,
		DFreq:            cfg.Search.DFreq(),
		Parallel:         cfg.Search.Parallel,
		ProgressInterval: cfg.Logging.ProgressInterval,
	}, opts...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if cfg.Metrics.Enabled {
		srv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	var (
		summary     sweep.Summary
		recordBytes int64
	)
	g.Go(func() error {
		if srv != nil {
			defer func() {
				select {
				case <-gctx.Done():
				case <-time.After(cfg.Metrics.Linger):
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		sum, err := sweeper.Run(gctx)
		summary = sum
		if err != nil {
			return err
		}
		if records != nil {
			if err := records.Close(); err != nil {
				return fmt.Errorf("failed to close records: %w", err)
			}
			recordBytes = records.Bytes()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	printSummary(c.App.Writer, summary, recordBytes, rc)
	return nil
}

func partitionsCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected arguments N P, got %d arguments", c.NArg())
	}
	n, err := strconv.ParseUint(c.Args().Get(0), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid N: %w", err)
	}
	p, err := strconv.ParseUint(c.Args().Get(1), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid P: %w", err)
	}

	t, err := partition.NewTable(uint32(n), uint32(p))
	if err != nil {
		return err
	}

	w := c.App.Writer
	for i := range t.Len() {
		left, right := t.Offsets(i)
		size := t.Size(i)
		if size == 0 {
			fmt.Fprintf(w, "partition %d: offsets [%d,%d] empty\n", i, left, right)
			continue
		}
		fmt.Fprintf(w, "partition %d: offsets [%d,%d] points [%d,%d] size %d\n",
			i, left, right, left, int(n)-1+int(right), size)
	}
	return nil
}

func inspectCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected argument FILE")
	}

	cd, ok := codec.ByName(c.String("codec"))
	if !ok {
		return fmt.Errorf("unknown codec %q", c.String("codec"))
	}
	compression, err := sweep.ParseCompression(c.String("compression"))
	if err != nil {
		return err
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open records: %w", err)
	}
	defer f.Close()

	var (
		count int
		best  sweep.Record
	)
	partitions := map[int]int{}
	err = sweep.ReadRecords(f, cd, compression, func(r sweep.Record) error {
		if count == 0 || r.PeakPower > best.PeakPower {
			best = r
		}
		count++
		partitions[r.Partition]++
		return nil
	})
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "records: %d\n", count)
	fmt.Fprintf(w, "partitions: %d\n", len(partitions))
	if count > 0 {
		fmt.Fprintf(w, "peak: power %.4f at freq %.6f params %v\n", best.PeakPower, best.PeakFreq, best.Params)
	}
	return nil
}
