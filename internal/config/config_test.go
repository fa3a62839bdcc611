package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, compose.Options{Mode: compose.Horizontal}, cfg.StitchOptions())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stitcher.yml"), []byte(`
mode: vertical
keepAspect: true
interpolation: nearest
fetchTimeout: 5s
maxSessions: 4
`), 0644))
	t.Setenv("STITCHER_PORT", "9999")
	t.Setenv("STITCHER_DECODE_CONCURRENCY", "3")
	t.Setenv("STITCHER_MAX_PIXELS", "1000000")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, compose.Vertical, cfg.Mode)
	assert.True(t, cfg.KeepAspect)
	assert.Equal(t, "nearest", cfg.Interpolation)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 4, cfg.MaxSessions)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 3, cfg.DecodeConcurrency)
	assert.Equal(t, int64(1000000), cfg.MaxPixels)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes, "untouched defaults survive")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: vertical\n"), 0644))
	t.Setenv("STITCHER_MODE", "horizontal")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, compose.Horizontal, cfg.Mode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "diagonal" }},
		{name: "unknown interpolation", mutate: func(c *Config) { c.Interpolation = "lanczos" }},
		{name: "zero upload limit", mutate: func(c *Config) { c.MaxUploadBytes = 0 }},
		{name: "negative row height", mutate: func(c *Config) { c.RowHeight = -1 }},
		{name: "negative pixel limit", mutate: func(c *Config) { c.MaxPixels = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stitcher.yaml"), []byte("mode: [\n"), 0644))
	_, err := Load(dir)
	assert.Error(t, err)
}
