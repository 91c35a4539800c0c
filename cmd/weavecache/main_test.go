package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"weavecache"}, args...))
	return out.String(), err
}

func TestPartitionsCommand(t *testing.T) {
	out, err := runApp(t, "partitions", "10", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "partition 0: offsets [0,-6] points [0,3] size 4")
	assert.Contains(t, out, "partition 1: offsets [4,-3] points [4,6] size 3")
	assert.Contains(t, out, "partition 2: offsets [7,0] points [7,9] size 3")

	out, err = runApp(t, "partitions", "2", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "partition 2: offsets [2,0] empty")

	_, err = runApp(t, "partitions", "10")
	assert.Error(t, err)

	_, err = runApp(t, "partitions", "10", "0")
	assert.Error(t, err)
}

func TestRunAndInspect(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "weavecache.yaml")
	recordsPath := filepath.Join(dir, "records.zst")

	require.NoError(t, os.WriteFile(cfgPath, []byte(`
search:
  partitions: 2
  parallel: true
output:
  codec: yaml
  compression: zstd
logging:
  level: error
`), 0o600))

	out, err := runApp(t, "run", "--config", cfgPath, "--output", recordsPath)
	require.NoError(t, err)

	assert.Contains(t, out, "points: 384 in 2 partitions (0 empty)")
	assert.Contains(t, out, "records: 384")
	assert.Contains(t, out, "segment 1:")

	// The signal sits on a coherent point first reached from semicoherent (3.5, 2.5).
	assert.Contains(t, out, "peak: power 2.0000")
	assert.Contains(t, out, "params [3.5 2.5]")

	out, err = runApp(t, "inspect", "--codec", "yaml", "--compression", "zstd", recordsPath)
	require.NoError(t, err)

	assert.Contains(t, out, "records: 384")
	assert.Contains(t, out, "partitions: 2")
	assert.Contains(t, out, "peak: power 2.0000")
}

func TestRunAndInspect_DefaultCodec(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "weavecache.yaml")
	recordsPath := filepath.Join(dir, "records.lz4")

	require.NoError(t, os.WriteFile(cfgPath, []byte(`
output:
  compression: lz4
logging:
  level: error
`), 0o600))

	out, err := runApp(t, "run", "--config", cfgPath, "--output", recordsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "records: 192")

	out, err = runApp(t, "inspect", "--compression", "lz4", recordsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "records: 192")
	assert.Contains(t, out, "partitions: 1")

	// Plain JSON reads what the default codec wrote.
	out, err = runApp(t, "inspect", "--codec", "json", "--compression", "lz4", recordsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "records: 192")
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "weavecache.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("search:\n  segments: 0\n"), 0o600))

	_, err := runApp(t, "run", "--config", cfgPath)
	assert.Error(t, err)
}

func TestInspectCommand_Errors(t *testing.T) {
	_, err := runApp(t, "inspect")
	assert.Error(t, err)

	_, err = runApp(t, "inspect", "--codec", "xml", "records")
	assert.Error(t, err)

	_, err = runApp(t, "inspect", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
