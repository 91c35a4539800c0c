// Package config loads and validates the weavecache CLI configuration from a
// YAML file with WEAVECACHE_* environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/weavecache/codec"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config is the top-level CLI configuration.
type Config struct {
	Search   SearchConfig   `yaml:"search"`
	Signal   SignalConfig   `yaml:"signal"`
	Cache    CacheConfig    `yaml:"cache"`
	Output   OutputConfig   `yaml:"output"`
	Resource ResourceConfig `yaml:"resource"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SearchConfig describes the synthetic semicoherent search.
type SearchConfig struct {
	// SemiCounts are the semicoherent points per dimension; the last entry is
	// the number of frequency bins.
	SemiCounts []int `yaml:"semiCounts"`
	// SemiSpacing is the physical spacing of semicoherent points per dimension.
	SemiSpacing []float64 `yaml:"semiSpacing"`
	// CohCounts are the coherent points per dimension.
	CohCounts []int `yaml:"cohCounts"`
	// CohSpacing is the physical spacing of coherent points per dimension.
	CohSpacing []float64 `yaml:"cohSpacing"`
	// CohPad widens coherent frequency blocks on each side.
	CohPad int `yaml:"cohPad"`
	// Origin is the physical point at the lattice origin: parameters then frequency.
	Origin     []float64 `yaml:"origin"`
	Segments   int       `yaml:"segments"`
	Partitions int       `yaml:"partitions"`
	Parallel   bool      `yaml:"parallel"`
}

// DFreq returns the frequency bin width.
func (s SearchConfig) DFreq() float64 {
	if len(s.SemiSpacing) == 0 {
		return 0
	}
	return s.SemiSpacing[len(s.SemiSpacing)-1]
}

// SignalConfig describes the injected synthetic signal.
type SignalConfig struct {
	Freq      float64   `yaml:"freq"`
	Params    []float64 `yaml:"params"`
	Width     float64   `yaml:"width"`
	Amplitude float64   `yaml:"amplitude"`
}

// CacheConfig holds the options of every segment's cache.
type CacheConfig struct {
	Interpolation bool   `yaml:"interpolation"`
	MaxSize       uint32 `yaml:"maxSize"`
	GCExtra       uint32 `yaml:"gcExtra"`
	CapacityHint  int    `yaml:"capacityHint"`
}

// OutputConfig controls the record stream. An empty Path disables it.
type OutputConfig struct {
	Path             string `yaml:"path"`
	Codec            string `yaml:"codec"`
	Compression      string `yaml:"compression"`
	CompressionLevel int    `yaml:"compressionLevel"`
}

// ResourceConfig bounds memory and output bandwidth. Zero means unlimited.
type ResourceConfig struct {
	MemoryLimitBytes   int64 `yaml:"memoryLimitBytes"`
	IOLimitBytesPerSec int64 `yaml:"ioLimitBytesPerSec"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level            string        `yaml:"level"`
	Format           string        `yaml:"format"`
	ProgressInterval time.Duration `yaml:"progressInterval"`
}

// SlogLevel returns the slog level for Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: logging level %q", ErrInvalid, l.Level)
	}
	return level, nil
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// Linger keeps the server up after the sweep so the final values can be scraped.
	Linger time.Duration `yaml:"linger"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the default configuration: a small two-segment search
// with a signal at its centre.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			SemiCounts:  []int{16, 12, 64},
			SemiSpacing: []float64{0.5, 0.5, 0.01},
			CohCounts:   []int{9, 7, 64},
			CohSpacing:  []float64{1, 1, 0.01},
			CohPad:      4,
			Origin:      []float64{0, 0, 100},
			Segments:    2,
			Partitions:  1,
		},
		Signal: SignalConfig{
			Freq:      100.3,
			Params:    []float64{4, 3},
			Width:     0.75,
			Amplitude: 1,
		},
		Cache: CacheConfig{
			Interpolation: true,
			CapacityHint:  64,
		},
		Output: OutputConfig{
			Codec:       "go-json",
			Compression: "none",
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "text",
			ProgressInterval: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// applyEnvOverrides reads WEAVECACHE_* environment variables and overrides
// the corresponding config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("WEAVECACHE_SEGMENTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEAVECACHE_SEGMENTS: %w", err)
		}
		cfg.Search.Segments = n
	}
	if v := os.Getenv("WEAVECACHE_PARTITIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEAVECACHE_PARTITIONS: %w", err)
		}
		cfg.Search.Partitions = n
	}
	if v := os.Getenv("WEAVECACHE_PARALLEL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WEAVECACHE_PARALLEL: %w", err)
		}
		cfg.Search.Parallel = b
	}
	if v := os.Getenv("WEAVECACHE_MAX_SIZE"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("WEAVECACHE_MAX_SIZE: %w", err)
		}
		cfg.Cache.MaxSize = uint32(n)
	}
	if v := os.Getenv("WEAVECACHE_GC_EXTRA"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("WEAVECACHE_GC_EXTRA: %w", err)
		}
		cfg.Cache.GCExtra = uint32(n)
	}
	if v := os.Getenv("WEAVECACHE_OUTPUT_PATH"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("WEAVECACHE_OUTPUT_CODEC"); v != "" {
		cfg.Output.Codec = v
	}
	if v := os.Getenv("WEAVECACHE_OUTPUT_COMPRESSION"); v != "" {
		cfg.Output.Compression = v
	}
	if v := os.Getenv("WEAVECACHE_MEMORY_LIMIT_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WEAVECACHE_MEMORY_LIMIT_BYTES: %w", err)
		}
		cfg.Resource.MemoryLimitBytes = n
	}
	if v := os.Getenv("WEAVECACHE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WEAVECACHE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WEAVECACHE_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	s := c.Search
	ndim := len(s.SemiCounts)
	if ndim == 0 {
		add("search.semiCounts is empty")
	}
	if len(s.SemiSpacing) != ndim || len(s.CohCounts) != ndim || len(s.CohSpacing) != ndim || len(s.Origin) != ndim {
		add("search dimensions disagree: semiCounts %d, semiSpacing %d, cohCounts %d, cohSpacing %d, origin %d",
			ndim, len(s.SemiSpacing), len(s.CohCounts), len(s.CohSpacing), len(s.Origin))
	} else if ndim > 0 && s.SemiSpacing[ndim-1] != s.CohSpacing[ndim-1] {
		add("semicoherent and coherent frequency spacings differ: %v != %v", s.SemiSpacing[ndim-1], s.CohSpacing[ndim-1])
	}
	if s.CohPad < 0 {
		add("search.cohPad must not be negative")
	}
	if s.Segments <= 0 {
		add("search.segments must be positive")
	}
	if s.Partitions <= 0 {
		add("search.partitions must be positive")
	}

	if len(c.Signal.Params) != max(ndim-1, 0) {
		add("signal.params has %d entries, want %d", len(c.Signal.Params), max(ndim-1, 0))
	}
	if !(c.Signal.Width > 0) {
		add("signal.width must be positive")
	}

	if _, ok := codec.ByName(c.Output.Codec); !ok {
		add("output.codec %q is not one of %s", c.Output.Codec, strings.Join(codec.Names(), ", "))
	}
	switch c.Output.Compression {
	case "", "none", "lz4", "zstd":
	default:
		add("output.compression %q is not none, lz4 or zstd", c.Output.Compression)
	}

	if c.Resource.MemoryLimitBytes < 0 || c.Resource.IOLimitBytesPerSec < 0 {
		add("resource limits must not be negative")
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format %q is not text or json", c.Logging.Format)
	}

	return errors.Join(errs...)
}
