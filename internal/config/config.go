package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
)

// Config holds settings loaded from stitcher.yml and STITCHER_* variables.
type Config struct {
	Port              string        `yaml:"port,omitempty" env:"PORT"`
	Mode              compose.Mode  `yaml:"mode,omitempty" env:"MODE"`
	KeepAspect        bool          `yaml:"keepAspect,omitempty" env:"KEEP_ASPECT"`
	Interpolation     string        `yaml:"interpolation,omitempty" env:"INTERPOLATION"`
	DecodeConcurrency int           `yaml:"decodeConcurrency,omitempty" env:"DECODE_CONCURRENCY"`
	FetchTimeout      time.Duration `yaml:"fetchTimeout,omitempty" env:"FETCH_TIMEOUT"`
	MaxUploadBytes    int64         `yaml:"maxUploadBytes,omitempty" env:"MAX_UPLOAD_BYTES"`
	MaxPixels         int64         `yaml:"maxPixels,omitempty" env:"MAX_PIXELS"`
	MaxSessions       int           `yaml:"maxSessions,omitempty" env:"MAX_SESSIONS"`
	RowHeight         float64       `yaml:"rowHeight,omitempty" env:"ROW_HEIGHT"`
	PruneFailed       bool          `yaml:"pruneFailed,omitempty" env:"PRUNE_FAILED"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:           "8888",
		Mode:           compose.Horizontal,
		Interpolation:  "bilinear",
		FetchTimeout:   30 * time.Second,
		MaxUploadBytes: 10 * 1024 * 1024,
		MaxPixels:      64 * 1024 * 1024,
		MaxSessions:    128,
		RowHeight:      1,
	}
}

// Load reads stitcher.yml or stitcher.yaml from dir over the defaults, then
// applies STITCHER_* environment variables. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()
	for _, name := range []string{"stitcher.yml", "stitcher.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		break
	}
	return finish(cfg)
}

// LoadFile reads one explicit config file over the defaults, then applies
// the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "STITCHER_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the stitcher cannot act on.
func (c *Config) Validate() error {
	mode, err := compose.ParseMode(string(c.Mode))
	if err != nil {
		return err
	}
	c.Mode = mode
	if _, err := compose.Interpolator(c.Interpolation); err != nil {
		return err
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("maxUploadBytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.MaxPixels < 0 {
		return fmt.Errorf("maxPixels must not be negative, got %d", c.MaxPixels)
	}
	if c.RowHeight <= 0 {
		return fmt.Errorf("rowHeight must be positive, got %v", c.RowHeight)
	}
	return nil
}

// StitchOptions are the default stitch settings.
func (c *Config) StitchOptions() compose.Options {
	return compose.Options{Mode: c.Mode, KeepAspect: c.KeepAspect}
}
