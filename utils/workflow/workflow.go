// Package workflow runs the resumable generation pipeline for an article:
// outline sections in order, the Conclusion and FAQ backfill, metadata,
// compilation and the optional image phase.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kris-hansen/scribe/utils/article"
	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/cost"
	"github.com/kris-hansen/scribe/utils/fileutil"
	"github.com/kris-hansen/scribe/utils/images"
	"github.com/kris-hansen/scribe/utils/links"
	"github.com/kris-hansen/scribe/utils/models"
	"github.com/kris-hansen/scribe/utils/outline"
	"github.com/kris-hansen/scribe/utils/progress"
	"github.com/kris-hansen/scribe/utils/prompts"
	"github.com/kris-hansen/scribe/utils/store"
)

const (
	// DefaultContextTail bounds the prior content sent with each outline section.
	DefaultContextTail = 2000

	emDash = "—"
)

// Ledger labels for the non-outline units.
const (
	ConclusionLabel = "Conclusion"
	FAQLabel        = "FAQ"
	MetadataLabel   = "Metadata"
)

// Options configures a Workflow. Zero values fall back to the defaults.
type Options struct {
	OutputDir   string
	Pause       time.Duration
	ContextTail int
	Rates       cost.Rates
	Reporter    *progress.Reporter
	Now         func() time.Time

	// Images runs the image phase for articles that ask for it. Nil skips it.
	Images     *images.Pipeline
	RenderHTML bool
	// Enricher fills in missing link descriptions before generation. Nil skips it.
	Enricher *links.Enricher

	// Sleep waits between generation calls; replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Result summarizes one article run.
type Result struct {
	Title        string
	Slug         string
	Dir          string
	Sections     int
	ResumedAt    int
	Generated    []string
	Backfilled   []string
	Metadata     Metadata
	Totals       cost.Entry
	CompiledPath string
	Images       int
	// ImageErr is set when the image phase failed. The text run still succeeded.
	ImageErr error
}

// Workflow generates articles with a single text generator.
type Workflow struct {
	gen  models.Generator
	opts Options
}

// New creates a workflow around gen.
func New(gen models.Generator, opts Options) *Workflow {
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.ContextTail <= 0 {
		opts.ContextTail = DefaultContextTail
	}
	if opts.Rates == (cost.Rates{}) {
		opts.Rates = cost.DefaultRates
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Stdout()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Workflow{gen: gen, opts: opts}
}

// run holds the per-article state owned by one Run call.
type run struct {
	spec     article.Spec
	sections []outline.Section
	store    *store.Store
	ledger   *cost.Ledger
	content  string
	result   *Result
}

// ArticleDir is where an article's files live.
func (w *Workflow) ArticleDir(spec article.Spec) string {
	return filepath.Join(w.opts.OutputDir, spec.NormalizedSlug())
}

// Run generates one article, resuming from whatever is already on disk. A
// failed generation aborts the run and leaves the written sections in
// place for the next attempt.
func (w *Workflow) Run(ctx context.Context, spec article.Spec) (*Result, error) {
	r := w.opts.Reporter
	r.Phase("Processing Article: %s", spec.Title)

	st, err := w.init(spec)
	if err != nil {
		return nil, err
	}

	if w.opts.Enricher != nil {
		spec = w.opts.Enricher.EnrichSpec(ctx, spec)
	}

	rn := &run{
		spec:   spec,
		store:  st,
		ledger: w.openLedger(st, spec.Title),
		result: &Result{Title: spec.Title, Slug: spec.NormalizedSlug(), Dir: st.Dir},
	}

	if err := w.resumeScan(rn); err != nil {
		return nil, err
	}
	if len(rn.sections) == 0 {
		r.Warn("Outline for %q has no H2 sections, nothing to generate", spec.Title)
		return rn.result, nil
	}

	if err := w.generateSections(ctx, rn); err != nil {
		return nil, err
	}
	if err := w.backfill(ctx, rn); err != nil {
		return nil, err
	}
	meta, err := w.metadata(ctx, rn)
	if err != nil {
		return nil, err
	}
	if err := w.compile(rn, meta); err != nil {
		return nil, err
	}

	if spec.IncludeImages && w.opts.Images != nil {
		w.imagePhase(ctx, rn)
	}

	r.Success("COMPLETED: %s", spec.Title)
	r.Info("Saved to: %s", st.Dir)
	return rn.result, nil
}

func (w *Workflow) init(spec article.Spec) (*store.Store, error) {
	slug := spec.NormalizedSlug()
	if strings.Trim(slug, "-") == "" {
		return nil, fmt.Errorf("workflow: article %q has no usable slug", spec.Title)
	}
	st := store.New(filepath.Join(w.opts.OutputDir, slug))
	st.Warnf = w.opts.Reporter.Warn
	if err := st.EnsureDir(); err != nil {
		return nil, fmt.Errorf("workflow: init: %w", err)
	}
	return st, nil
}

func (w *Workflow) openLedger(st *store.Store, title string) *cost.Ledger {
	ledger := cost.Open(st.CostPath(), title, w.opts.Rates)
	ledger.Warnf = w.opts.Reporter.Warn
	return ledger
}

// Store returns the article store for spec without creating anything.
func (w *Workflow) Store(spec article.Spec) *store.Store {
	st := store.New(w.ArticleDir(spec))
	st.Warnf = w.opts.Reporter.Warn
	return st
}

func (w *Workflow) resumeScan(rn *run) error {
	r := w.opts.Reporter
	r.Info("Parsing outline into sections...")
	rn.sections = outline.Parse(rn.spec.Outline)
	rn.result.Sections = len(rn.sections)
	r.Info("Found %d main sections", len(rn.sections))

	resume, err := rn.store.ResumeIndex()
	if err != nil {
		return fmt.Errorf("workflow: resume scan: %w", err)
	}
	rn.result.ResumedAt = resume
	r.Info("Found %d already processed sections. Starting from section %d...", resume, resume+1)

	content, err := rn.store.LoadContext(rn.sections, resume)
	if err != nil {
		return fmt.Errorf("workflow: resume scan: %w", err)
	}
	rn.content = content
	return nil
}

func (w *Workflow) generateSections(ctx context.Context, rn *run) error {
	r := w.opts.Reporter
	r.Phase("Phase 2: Section-by-Section Generation...")

	headings := outline.Headings(rn.sections)
	for i := rn.result.ResumedAt; i < len(rn.sections); i++ {
		sec := rn.sections[i]
		r.Step("Generating Section [%d/%d]: %s", i+1, len(rn.sections), sec.Heading)

		system, err := prompts.Section(prompts.SectionInput{
			Heading:  sec.Combined(),
			Article:  rn.spec,
			Context:  tail(rn.content, w.opts.ContextTail),
			Previous: headings[:i],
			Upcoming: headings[i+1:],
		})
		if err != nil {
			return fmt.Errorf("workflow: section %d: %w", i+1, err)
		}

		body, err := w.generate(ctx, rn, sectionLabel(rn.sections, i), system, prompts.SectionInstruction(sec.Heading))
		if err != nil {
			return fmt.Errorf("workflow: section %d (%s): %w", i+1, sec.Heading, err)
		}

		if _, err := rn.store.WriteSection(i+1, sec.Heading, body); err != nil {
			return fmt.Errorf("workflow: section %d: %w", i+1, err)
		}
		rn.content += store.Wrap(body)
		rn.result.Generated = append(rn.result.Generated, sec.Heading)

		if err := w.opts.Sleep(ctx, w.opts.Pause); err != nil {
			return err
		}
	}
	return nil
}

// sectionLabel is the ledger label of the section at i. A heading repeated
// later in the outline gets its 1-based index so the entries stay apart.
func sectionLabel(sections []outline.Section, i int) string {
	label := "Section: " + sections[i].Heading
	for _, prev := range sections[:i] {
		if prev.Heading == sections[i].Heading {
			return fmt.Sprintf("%s (%d)", label, i+1)
		}
	}
	return label
}

// backfill guarantees a Conclusion and then an FAQ, each with the full
// accumulated content as context.
func (w *Workflow) backfill(ctx context.Context, rn *run) error {
	r := w.opts.Reporter
	r.Phase("Phase 3: Ensuring Mandatory Sections (FAQ & Conclusion)...")

	m, err := rn.store.DetectMandatory(rn.content)
	if err != nil {
		return fmt.Errorf("workflow: backfill: %w", err)
	}
	next := m.MaxIndex

	units := []struct {
		present     bool
		heading     string
		label       string
		file        string
		instruction string
		upcoming    []string
	}{
		{m.HasConclusion, prompts.ConclusionHeading, ConclusionLabel, store.ConclusionName, prompts.ConclusionInstruction, nil},
		{m.HasFAQ, prompts.FAQHeading, FAQLabel, store.FAQName, prompts.FAQInstruction, []string{prompts.ConclusionHeading}},
	}

	for _, u := range units {
		if u.present {
			r.Info("%s section already exists. Skipping.", u.heading)
			continue
		}
		r.Step("Generating Mandatory Section: %s", u.heading)

		system, err := prompts.Section(prompts.SectionInput{
			Heading:  u.heading,
			Article:  rn.spec,
			Context:  rn.content,
			Previous: []string{prompts.EntireContextTopic},
			Upcoming: u.upcoming,
		})
		if err != nil {
			return fmt.Errorf("workflow: backfill %s: %w", u.label, err)
		}

		body, err := w.generate(ctx, rn, u.label, system, u.instruction)
		if err != nil {
			return fmt.Errorf("workflow: backfill %s: %w", u.label, err)
		}

		next++
		if _, err := rn.store.WriteNamedSection(next, u.file, body); err != nil {
			return fmt.Errorf("workflow: backfill %s: %w", u.label, err)
		}
		rn.content += store.Wrap(body)
		rn.result.Backfilled = append(rn.result.Backfilled, u.label)

		if err := w.opts.Sleep(ctx, w.opts.Pause); err != nil {
			return err
		}
	}
	return nil
}

// generate calls the model, strips em-dashes and records usage under label.
func (w *Workflow) generate(ctx context.Context, rn *run, label, system, user string) (string, error) {
	r := w.opts.Reporter
	r.Start(label)
	res, err := w.gen.Generate(ctx, system, user)
	r.Stop()
	if err != nil {
		return "", err
	}

	if err := rn.ledger.Track(label, res.Usage); err != nil {
		return "", err
	}
	config.DebugLog("[Workflow] %s: %d characters", label, len(res.Text))
	return Sanitize(res.Text), nil
}

// Sanitize replaces every em-dash with a plain hyphen.
func Sanitize(text string) string {
	return strings.ReplaceAll(text, emDash, "-")
}

// metadata asks for the SEO record. Generation and parse failures fall back
// to defaults; only cancellation and ledger write errors are returned.
func (w *Workflow) metadata(ctx context.Context, rn *run) (Metadata, error) {
	r := w.opts.Reporter
	r.Phase("Phase 4: Compilation...")
	r.Step("Generating Meta Data (Title, Description, Page Title)...")

	system, err := prompts.Metadata(rn.spec)
	if err != nil {
		return Metadata{}, fmt.Errorf("workflow: metadata: %w", err)
	}

	r.Start(MetadataLabel)
	res, err := w.gen.Generate(ctx, system, prompts.MetadataInstruction)
	r.Stop()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Metadata{}, ctxErr
		}
		r.Error(err, "Error generating metadata, using defaults")
		return DefaultMetadata(rn.spec.Title), nil
	}

	if err := rn.ledger.Track(MetadataLabel, res.Usage); err != nil {
		return Metadata{}, fmt.Errorf("workflow: metadata: %w", err)
	}

	meta, ok := ExtractMetadata(rn.spec.Title, res.Text)
	if !ok {
		r.Warn("Could not parse JSON from metadata response, using raw output for description")
	}
	return meta, nil
}

func (w *Workflow) imagePhase(ctx context.Context, rn *run) {
	r := w.opts.Reporter
	r.Phase("Phase 5: Images...")
	pipeline := w.opts.Images

	_, ok, err := rn.store.ReadPlan()
	if err == nil && !ok {
		_, err = pipeline.BuildPlan(ctx, rn.store, rn.sections, rn.ledger)
	}
	if err == nil {
		rn.result.Images, err = pipeline.Run(ctx, rn.store, rn.sections)
	}
	if err != nil {
		rn.result.ImageErr = err
		r.Error(err, "Image phase failed for %s", rn.spec.Title)
	}
}

// existing opens the state of an article that has already been generated.
func (w *Workflow) existing(spec article.Spec, phase string) (*run, error) {
	if w.opts.Images == nil {
		return nil, fmt.Errorf("workflow: %s: no image pipeline configured", phase)
	}
	st := w.Store(spec)
	ok, err := fileutil.Exists(st.Dir)
	if err != nil {
		return nil, fmt.Errorf("workflow: %s: %w", phase, err)
	}
	if !ok {
		return nil, fmt.Errorf("workflow: %s: %s has not been generated yet", phase, st.Dir)
	}

	sections := outline.Parse(spec.Outline)
	return &run{
		spec:     spec,
		sections: sections,
		store:    st,
		ledger:   w.openLedger(st, spec.Title),
		result: &Result{
			Title:    spec.Title,
			Slug:     spec.NormalizedSlug(),
			Dir:      st.Dir,
			Sections: len(sections),
		},
	}, nil
}

// BuildPlan rewrites the infographic plan of an already generated article.
func (w *Workflow) BuildPlan(ctx context.Context, spec article.Spec) (int, error) {
	rn, err := w.existing(spec, "plan")
	if err != nil {
		return 0, err
	}
	n, err := w.opts.Images.BuildPlan(ctx, rn.store, rn.sections, rn.ledger)
	if err != nil {
		return n, fmt.Errorf("workflow: plan: %w", err)
	}
	return n, nil
}

// GenerateImages runs only the image phase for an already generated
// article. rebuildPlan discards any existing plan first.
func (w *Workflow) GenerateImages(ctx context.Context, spec article.Spec, rebuildPlan bool) (*Result, error) {
	rn, err := w.existing(spec, "images")
	if err != nil {
		return nil, err
	}
	if rebuildPlan {
		if _, err := w.opts.Images.BuildPlan(ctx, rn.store, rn.sections, rn.ledger); err != nil {
			return nil, fmt.Errorf("workflow: images: %w", err)
		}
	}
	w.imagePhase(ctx, rn)
	return rn.result, rn.result.ImageErr
}

// RunAll processes specs one after another in input order. With
// continueOnError a failed article is reported and the next one starts;
// otherwise the first failure stops the batch. Failures are joined into
// the returned error.
func (w *Workflow) RunAll(ctx context.Context, specs []article.Spec, continueOnError bool) ([]*Result, error) {
	var results []*Result
	var errs []error

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := w.Run(ctx, spec)
		if err != nil {
			w.opts.Reporter.Error(err, "Article %q failed", spec.Title)
			errs = append(errs, fmt.Errorf("%s: %w", spec.NormalizedSlug(), err))
			if !continueOnError {
				break
			}
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
