package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kris-hansen/scribe/utils/article"
	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/cost"
	"github.com/kris-hansen/scribe/utils/fileutil"
	"github.com/kris-hansen/scribe/utils/progress"
	"github.com/kris-hansen/scribe/utils/workflow"
)

var costCmd = &cobra.Command{
	Use:   "cost [csv]",
	Short: "Show recorded token usage and cost per article",
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
		return printCosts(os.Stdout, cfg, specs)
	},
}

// printCosts writes the TOTAL of every article's ledger, and each label
// when verbose.
func printCosts(out io.Writer, cfg *config.Config, specs []article.Spec) error {
	reporter := progress.New(out)
	wf := workflow.New(nil, workflow.Options{OutputDir: cfg.OutputDir, Reporter: reporter})
	rates := cost.PerMillion(cfg.Rates.InputPerMillion, cfg.Rates.OutputPerMillion)

	var grand cost.Entry
	for _, spec := range specs {
		st := wf.Store(spec)
		ok, err := fileutil.Exists(st.CostPath())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "%s: no usage recorded\n", spec.NormalizedSlug())
			continue
		}

		ledger := cost.Open(st.CostPath(), spec.Title, rates)
		ledger.Warnf = reporter.Warn
		totals := ledger.Totals()
		fmt.Fprintf(out, "%s: %d input, %d output tokens, $%.4f\n",
			spec.NormalizedSlug(), totals.InputTokens, totals.OutputTokens, totals.Cost)
		if config.Verbose {
			for _, label := range ledger.Labels() {
				e, _ := ledger.Entry(label)
				fmt.Fprintf(out, "   %s: %d/%d $%.6f\n", label, e.InputTokens, e.OutputTokens, e.Cost)
			}
		}

		grand.InputTokens += totals.InputTokens
		grand.OutputTokens += totals.OutputTokens
		grand.Cost += totals.Cost
	}

	reporter.Usage(grand.InputTokens, grand.OutputTokens, grand.Cost)
	return nil
}

func init() {
	costCmd.Flags().StringSliceVar(&onlySlugs, "only", nil, "only show the articles with these slugs")
	rootCmd.AddCommand(costCmd)
}
