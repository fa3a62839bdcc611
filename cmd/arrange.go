package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
	"github.com/lehigh-university-libraries/stitcher/internal/tui"
)

func newArrangeCmd(root *rootOptions) *cobra.Command {
	var (
		mode       string
		keepAspect bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "arrange [images...]",
		Short: "Reorder images interactively, then stitch them",
		Long: `Opens a terminal UI listing the images in argument order.

Drag rows with the mouse to reorder them, or drop a row on [remove] to take it
out. J and K move the selected row. Press s to stitch into the output file.`,
		Example: `  stitcher arrange scans/*.jpg -o spread.png`,
		Args:    cobra.MinimumNArgs(1),
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

			model, err := tui.New(cmd.Context(), entriesFromArgs(args), svc, opts, output)
			if err != nil {
				return err
			}
			return tui.Run(model)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "horizontal", "Concatenation axis (horizontal or vertical)")
	cmd.Flags().BoolVar(&keepAspect, "keep-aspect", false, "Stretch every image to the canvas cross-axis extent")
	cmd.Flags().StringVarP(&output, "output", "o", "stitched-image.png", "Output PNG path")

	return cmd
}
