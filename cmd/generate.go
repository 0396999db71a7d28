package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kris-hansen/scribe/utils/article"
	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/cost"
	"github.com/kris-hansen/scribe/utils/images"
	"github.com/kris-hansen/scribe/utils/links"
	"github.com/kris-hansen/scribe/utils/models"
	"github.com/kris-hansen/scribe/utils/progress"
	"github.com/kris-hansen/scribe/utils/workflow"
)

const linkFetchTimeout = 15 * time.Second

var (
	onlySlugs  []string
	skipImages bool
	dryRun     bool
	failFast   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [csv]",
	Short: "Generate every article in the content sheet",
	Long: `Generate every article in the content sheet, one after another. Sections already
on disk are kept and generation resumes after the last one written.`,
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
		if len(specs) == 0 {
			fmt.Println("No articles to process.")
			return nil
		}

		reporter := progress.Stdout()
		gen, err := textGenerator(cfg)
		if err != nil {
			return err
		}

		var pipeline *images.Pipeline
		if !skipImages && wantsImages(specs) {
			pipeline = imagePipeline(cfg, gen, reporter)
		}

		wf := newWorkflow(cfg, gen, pipeline, reporter)
		continueOnError := cfg.ContinueOnError && !failFast
		results, err := wf.RunAll(cmd.Context(), specs, continueOnError)
		printSummary(results)
		return err
	},
}

// loadSpecs reads the sheet named by args, or the configured input, and
// applies the --only filter.
func loadSpecs(cfg *config.Config, args []string) ([]article.Spec, error) {
	input := cfg.Input
	if len(args) > 0 {
		input = args[0]
	}
	config.DebugLog("Loading content sheet from %s", input)

	specs, err := article.LoadCSV(input)
	if err != nil {
		return nil, err
	}
	return filterSpecs(specs, onlySlugs), nil
}

// filterSpecs keeps the rows whose normalized slug is listed. An empty
// list keeps everything.
func filterSpecs(specs []article.Spec, only []string) []article.Spec {
	if len(only) == 0 {
		return specs
	}
	want := make(map[string]bool, len(only))
	for _, s := range only {
		want[article.Slugify(strings.TrimSpace(s))] = true
	}

	var out []article.Spec
	for _, spec := range specs {
		if want[spec.NormalizedSlug()] {
			out = append(out, spec)
		}
	}
	return out
}

func wantsImages(specs []article.Spec) bool {
	for _, s := range specs {
		if s.IncludeImages {
			return true
		}
	}
	return false
}

func textGenerator(cfg *config.Config) (models.Generator, error) {
	if dryRun {
		fmt.Println("Dry run: no model will be called.")
		return &models.Mock{}, nil
	}
	gen, err := models.NewGenerator(cfg.Text, cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("error creating text generator: %w", err)
	}
	return gen, nil
}

// imagePipeline builds the image phase. A missing image provider only
// disables images; text generation still runs.
func imagePipeline(cfg *config.Config, text models.Generator, reporter *progress.Reporter) *images.Pipeline {
	var imgs models.ImageGenerator
	if dryRun {
		imgs = &models.MockImages{}
	} else {
		g, err := models.NewImageGenerator(cfg.Image)
		if err != nil {
			reporter.Warn("Image generation disabled: %v", err)
			return nil
		}
		imgs = g
	}

	p := images.New(imgs, text, reporter)
	if cfg.Image.Width > 0 && cfg.Image.Height > 0 {
		p.Dimensions = models.Dimensions{Width: cfg.Image.Width, Height: cfg.Image.Height}
	}
	p.Pause = cfg.Pacing.PlanPause
	return p
}

func newWorkflow(cfg *config.Config, gen models.Generator, pipeline *images.Pipeline, reporter *progress.Reporter) *workflow.Workflow {
	opts := workflow.Options{
		OutputDir:   cfg.OutputDir,
		Pause:       cfg.Pacing.SectionPause,
		ContextTail: cfg.ContextTail,
		Rates:       cost.PerMillion(cfg.Rates.InputPerMillion, cfg.Rates.OutputPerMillion),
		Reporter:    reporter,
		Images:      pipeline,
		RenderHTML:  cfg.RenderHTML,
	}
	if dryRun {
		opts.Pause = 0
	}
	if cfg.EnrichLinks {
		enricher := links.NewEnricher(linkFetchTimeout)
		enricher.Warnf = reporter.Warn
		opts.Enricher = enricher
	}
	return workflow.New(gen, opts)
}

func printSummary(results []*workflow.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Println("\nSummary:")
	for _, res := range results {
		line := fmt.Sprintf("- %s: %d sections, %d tokens, $%.4f -> %s",
			res.Slug, res.Sections, res.Totals.TotalTokens(), res.Totals.Cost, res.CompiledPath)
		if res.ImageErr != nil {
			line += " (images failed)"
		} else if res.Images > 0 {
			line += fmt.Sprintf(" (%d images)", res.Images)
		}
		fmt.Println(line)
	}
}

func init() {
	generateCmd.Flags().StringSliceVar(&onlySlugs, "only", nil, "only process the articles with these slugs")
	generateCmd.Flags().BoolVar(&skipImages, "skip-images", false, "skip the image phase")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "use placeholder output instead of calling a model")
	generateCmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failed article")
	rootCmd.AddCommand(generateCmd)
}
