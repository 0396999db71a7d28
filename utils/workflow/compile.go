package workflow

import (
	"fmt"
	"strings"

	"github.com/kris-hansen/scribe/utils/article"
	"github.com/kris-hansen/scribe/utils/cost"
	"github.com/kris-hansen/scribe/utils/render"
)

// Header renders the metadata block at the top of FULL_POST.md.
func Header(spec article.Spec, meta Metadata, totals cost.Entry, date string) string {
	title := meta.PageTitle
	if title == "" {
		title = spec.Title
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %s\n", headerValue(title))
	fmt.Fprintf(&sb, "meta_title: %s\n", headerValue(meta.MetaTitle))
	fmt.Fprintf(&sb, "description: %s\n", headerValue(meta.MetaDescription))
	fmt.Fprintf(&sb, "slug: %s\n", spec.NormalizedSlug())
	fmt.Fprintf(&sb, "date: %s\n", date)
	fmt.Fprintf(&sb, "author: %s\n", headerValue(spec.Author))
	fmt.Fprintf(&sb, "total_tokens: %d\n", totals.TotalTokens())
	fmt.Fprintf(&sb, "input_tokens: %d\n", totals.InputTokens)
	fmt.Fprintf(&sb, "output_tokens: %d\n", totals.OutputTokens)
	fmt.Fprintf(&sb, "estimated_cost_usd: %.4f\n", totals.Cost)
	sb.WriteString("---\n\n")
	return sb.String()
}

// headerValue keeps a value on one line so it cannot end the block early.
func headerValue(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// compile writes FULL_POST.md, always as a full overwrite, and the HTML
// export when enabled.
func (w *Workflow) compile(rn *run, meta Metadata) error {
	r := w.opts.Reporter

	totals := rn.ledger.Totals()
	r.Usage(totals.InputTokens, totals.OutputTokens, totals.Cost)

	date := rn.spec.PublishDate
	if strings.TrimSpace(date) == "" {
		date = w.opts.Now().Format("2006-01-02")
	}

	path, err := rn.store.WriteCompiled(Header(rn.spec, meta, totals, date) + rn.content)
	if err != nil {
		return fmt.Errorf("workflow: compile: %w", err)
	}
	rn.result.CompiledPath = path
	rn.result.Metadata = meta
	rn.result.Totals = totals

	if w.opts.RenderHTML {
		title := meta.PageTitle
		if title == "" {
			title = rn.spec.Title
		}
		page, err := render.Page(title, rn.content)
		if err != nil {
			return fmt.Errorf("workflow: compile: %w", err)
		}
		if _, err := rn.store.WriteHTML(page); err != nil {
			return fmt.Errorf("workflow: compile: %w", err)
		}
	}
	return nil
}
