package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.01, cfg.Search.DFreq())

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weavecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  segments: 4
  partitions: 3
cache:
  maxSize: 128
  gcExtra: 2
output:
  path: /tmp/records.zst
  compression: zstd
logging:
  level: debug
  progressInterval: 2s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Search.Segments)
	assert.Equal(t, 3, cfg.Search.Partitions)
	assert.Equal(t, uint32(128), cfg.Cache.MaxSize)
	assert.Equal(t, uint32(2), cfg.Cache.GCExtra)
	assert.Equal(t, "zstd", cfg.Output.Compression)
	assert.Equal(t, 2*time.Second, cfg.Logging.ProgressInterval)

	// Defaults survive for unset keys.
	assert.True(t, cfg.Cache.Interpolation)
	assert.Equal(t, "go-json", cfg.Output.Codec)
	assert.Equal(t, []int{16, 12, 64}, cfg.Search.SemiCounts)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [1, 2"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEAVECACHE_SEGMENTS", "8")
	t.Setenv("WEAVECACHE_PARALLEL", "true")
	t.Setenv("WEAVECACHE_MAX_SIZE", "64")
	t.Setenv("WEAVECACHE_OUTPUT_CODEC", "yaml")
	t.Setenv("WEAVECACHE_METRICS_ADDR", "127.0.0.1:9100")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Search.Segments)
	assert.True(t, cfg.Search.Parallel)
	assert.Equal(t, uint32(64), cfg.Cache.MaxSize)
	assert.Equal(t, "yaml", cfg.Output.Codec)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)

	t.Setenv("WEAVECACHE_PARTITIONS", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no dimensions", func(c *Config) { c.Search.SemiCounts = nil }},
		{"dimension mismatch", func(c *Config) { c.Search.CohCounts = []int{4, 64} }},
		{"frequency spacing", func(c *Config) { c.Search.CohSpacing = []float64{1, 1, 0.02} }},
		{"segments", func(c *Config) { c.Search.Segments = 0 }},
		{"partitions", func(c *Config) { c.Search.Partitions = -1 }},
		{"signal params", func(c *Config) { c.Signal.Params = []float64{1} }},
		{"signal width", func(c *Config) { c.Signal.Width = 0 }},
		{"codec", func(c *Config) { c.Output.Codec = "xml" }},
		{"compression", func(c *Config) { c.Output.Compression = "gzip" }},
		{"memory limit", func(c *Config) { c.Resource.MemoryLimitBytes = -1 }},
		{"logging level", func(c *Config) { c.Logging.Level = "loud" }},
		{"logging format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
