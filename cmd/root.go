package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
	"github.com/lehigh-university-libraries/stitcher/internal/config"
	"github.com/lehigh-university-libraries/stitcher/internal/metrics"
	"github.com/lehigh-university-libraries/stitcher/internal/sources"
	"github.com/lehigh-university-libraries/stitcher/internal/stitch"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "stitcher",
		Short: "Concatenate images into one composite horizontally or vertically",
		Long: `Stitcher joins a set of images into a single raster.

Images are kept in a user-chosen order, decoded concurrently, and laid out
side by side (horizontal) or stacked (vertical). It ships an HTTP API for a
browser front end, a one-shot CLI, and a terminal UI for reordering by mouse.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return setupLogging(opts.logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (defaults to ./stitcher.yml if present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newStitchCmd(opts))
	cmd.AddCommand(newArrangeCmd(opts))

	return cmd
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load(".")
}

// newService wires the decode and compose stack from cfg.
func newService(cfg *config.Config, blobs sources.Blobs, m *metrics.Metrics) (*stitch.Service, error) {
	scaler, err := compose.Interpolator(cfg.Interpolation)
	if err != nil {
		return nil, err
	}
	fetcher := sources.NewFetcher(blobs, cfg.FetchTimeout, cfg.MaxUploadBytes)
	engine := compose.NewEngine(scaler)
	engine.MaxPixels = cfg.MaxPixels
	return stitch.NewService(fetcher, engine, stitch.Config{
		Concurrency: cfg.DecodeConcurrency,
		PruneFailed: cfg.PruneFailed,
		MaxPixels:   cfg.MaxPixels,
		Metrics:     m,
	}), nil
}
