package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitter-run/flitter/internal/config"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flitter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_unroll_iterations: 10\ndebug: true\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxUnrollIterations)
	assert.True(t, cfg.Debug)
	assert.Equal(t, config.Default().InitialStackSize, cfg.InitialStackSize)
}
