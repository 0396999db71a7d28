package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kris-hansen/scribe/utils/progress"
)

var planCmd = &cobra.Command{
	Use:   "plan [csv]",
	Short: "Rebuild INFOGRAPHIC_PLAN.md for written articles",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		specs, err := loadSpecs(cfg, args)
		if err != nil {
			return err
		}
		if len(onlySlugs) == 0 {
			specs = imageSpecs(specs)
		}

		reporter := progress.Stdout()
		gen, err := textGenerator(cfg)
		if err != nil {
			return err
		}
		// Planning only calls the text model; the image generator is never used.
		pipeline := imagePipeline(cfg, gen, reporter)
		if pipeline == nil {
			return fmt.Errorf("image generation is not configured")
		}
		wf := newWorkflow(cfg, gen, pipeline, reporter)

		var errs []error
		for _, spec := range specs {
			if _, err := wf.BuildPlan(cmd.Context(), spec); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", spec.NormalizedSlug(), err))
			}
		}
		return errors.Join(errs...)
	},
}

func init() {
	planCmd.Flags().StringSliceVar(&onlySlugs, "only", nil, "only process the articles with these slugs")
	planCmd.Flags().BoolVar(&dryRun, "dry-run", false, "use placeholder output instead of calling a model")
	rootCmd.AddCommand(planCmd)
}
