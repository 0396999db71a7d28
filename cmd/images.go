package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kris-hansen/scribe/utils/article"
	"github.com/kris-hansen/scribe/utils/progress"
)

var rebuildPlan bool

var imagesCmd = &cobra.Command{
	Use:   "images [csv]",
	Short: "Generate infographics for articles that are already written",
	Long: `Generate one infographic per entry of each article's INFOGRAPHIC_PLAN.md and link it
into the matching section. Without --only, rows that ask for images are processed.`,
	Args: cobra.MaximumNArgs(1),
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
		if len(specs) == 0 {
			fmt.Println("No articles to process.")
			return nil
		}

		reporter := progress.Stdout()
		gen, err := textGenerator(cfg)
		if err != nil {
			return err
		}
		pipeline := imagePipeline(cfg, gen, reporter)
		if pipeline == nil {
			return fmt.Errorf("image generation is not configured")
		}
		wf := newWorkflow(cfg, gen, pipeline, reporter)

		var errs []error
		for _, spec := range specs {
			reporter.Phase("Images: %s", spec.Title)
			res, err := wf.GenerateImages(cmd.Context(), spec, rebuildPlan)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", spec.NormalizedSlug(), err))
				continue
			}
			reporter.Success("%s: %d image(s)", res.Slug, res.Images)
		}
		return errors.Join(errs...)
	},
}

func imageSpecs(specs []article.Spec) []article.Spec {
	var out []article.Spec
	for _, s := range specs {
		if s.IncludeImages {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	imagesCmd.Flags().BoolVar(&rebuildPlan, "plan", false, "rebuild the infographic plan before generating")
	imagesCmd.Flags().StringSliceVar(&onlySlugs, "only", nil, "only process the articles with these slugs")
	imagesCmd.Flags().BoolVar(&dryRun, "dry-run", false, "use placeholder output instead of calling a model")
	rootCmd.AddCommand(imagesCmd)
}
