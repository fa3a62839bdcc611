package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/stitch"
)

func newStitchCmd(root *rootOptions) *cobra.Command {
	var (
		mode       string
		keepAspect bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "stitch [images...]",
		Short: "Stitch images in the given order and write a PNG",
		Long: `Decodes every argument concurrently and joins them in argument order.

Arguments may be local paths or http(s) URLs. Images that fail to decode
are reported and left out; the rest are still stitched.`,
		Example: `  # Side by side
  stitcher stitch a.png b.jpg c.webp -o strip.png

  # Stacked, each stretched to the widest image
  stitcher stitch --mode vertical --keep-aspect page1.png page2.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			opts := cfg.StitchOptions()
			if cmd.Flags().Changed("mode") {
				if opts.Mode, err = compose.ParseMode(mode); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("keep-aspect") {
				opts.KeepAspect = keepAspect
			}

			svc, err := newService(cfg, nil, nil)
			if err != nil {
				return err
			}

			result, err := svc.StitchEntries(cmd.Context(), entriesFromArgs(args), opts)
			if err != nil {
				return err
			}
			return writeResult(cmd, result, output)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "horizontal", "Concatenation axis (horizontal or vertical)")
	cmd.Flags().BoolVar(&keepAspect, "keep-aspect", false, "Stretch every image to the canvas cross-axis extent")
	cmd.Flags().StringVarP(&output, "output", "o", "stitched-image.png", "Output PNG path")

	return cmd
}

// entriesFromArgs turns paths and URLs into entries in argument order.
func entriesFromArgs(args []string) []models.ImageEntry {
	entries := make([]models.ImageEntry, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			entries = append(entries, models.NewEntry(models.URLRef(arg), filepath.Base(arg)))
			continue
		}
		entries = append(entries, models.NewEntry(models.FileRef(arg), filepath.Base(arg)))
	}
	return entries
}

func writeResult(cmd *cobra.Command, result *stitch.Result, output string) error {
	out := cmd.OutOrStdout()
	for _, f := range result.Failures {
		fmt.Fprintf(out, "skipped %s: %s\n", f.Label, f.Error)
	}
	if result.Stitched == 0 {
		return fmt.Errorf("no images could be decoded")
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := result.Raster.EncodePNG(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Fprintf(out, "wrote %s (%dx%d, %d images, %s)\n", output, result.Width, result.Height, result.Stitched, result.Options.Mode)
	return nil
}
