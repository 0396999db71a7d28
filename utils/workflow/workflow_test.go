package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/kris-hansen/scribe/utils/article"
	"github.com/kris-hansen/scribe/utils/cost"
	"github.com/kris-hansen/scribe/utils/images"
	"github.com/kris-hansen/scribe/utils/models"
	"github.com/kris-hansen/scribe/utils/progress"
	"github.com/kris-hansen/scribe/utils/prompts"
	"github.com/kris-hansen/scribe/utils/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sectionPrefix = "Write the content for section: "

const metaJSON = `Here you go:
{"metaTitle": "Meta Title", "metaDescription": "A description {with braces}.", "pageTitle": "Page Title"}`

var testUsage = models.Usage{PromptTokens: 100, CompletionTokens: 50}

// writer answers every phase with deterministic text. bodies overrides the
// reply for a section heading; fail makes a heading return an error and
// faqErr fails the FAQ backfill.
type writer struct {
	bodies  map[string]string
	fail    map[string]error
	meta    string
	metaErr error
	faqErr  error
}

func (wr writer) respond(_ int, _, user string) (models.Result, error) {
	usage := testUsage
	switch {
	case strings.HasPrefix(user, sectionPrefix):
		h := strings.TrimPrefix(user, sectionPrefix)
		if err := wr.fail[h]; err != nil {
			return models.Result{}, err
		}
		if body, ok := wr.bodies[h]; ok {
			return models.Result{Text: body, Usage: &usage}, nil
		}
		return models.Result{Text: "## " + h + "\n\nText about " + h + ".", Usage: &usage}, nil
	case user == prompts.ConclusionInstruction:
		return models.Result{Text: "## Conclusion\n\nWrapping up.", Usage: &usage}, nil
	case user == prompts.FAQInstruction:
		if wr.faqErr != nil {
			return models.Result{}, wr.faqErr
		}
		return models.Result{Text: "## Frequently Asked Questions\n\nQ and A.", Usage: &usage}, nil
	case user == prompts.MetadataInstruction:
		if wr.metaErr != nil {
			return models.Result{}, wr.metaErr
		}
		meta := wr.meta
		if meta == "" {
			meta = metaJSON
		}
		return models.Result{Text: meta, Usage: &usage}, nil
	case user == prompts.InfographicInstruction:
		return models.Result{Text: "**Visual Description:** Simple diagram"}, nil
	}
	return models.Result{}, fmt.Errorf("unexpected prompt %q", user)
}

func (wr writer) mock() *models.Mock {
	return &models.Mock{Respond: wr.respond}
}

func newTestWorkflow(t *testing.T, gen models.Generator, mutate ...func(*Options)) (*Workflow, string) {
	t.Helper()
	dir := t.TempDir()
	opts := Options{
		OutputDir: dir,
		Pause:     time.Second,
		Reporter:  progress.Quiet(),
		Now:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		Sleep:     func(context.Context, time.Duration) error { return nil },
	}
	for _, m := range mutate {
		m(&opts)
	}
	return New(gen, opts), dir
}

func listMarkdown(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func sectionUsers(calls []models.Call) []string {
	var out []string
	for _, c := range calls {
		if strings.HasPrefix(c.User, sectionPrefix) {
			out = append(out, strings.TrimPrefix(c.User, sectionPrefix))
		}
	}
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunEndToEnd(t *testing.T) {
	mock := writer{}.mock()
	w, out := newTestWorkflow(t, mock)

	spec := article.Spec{
		Title:   "My Test",
		Slug:    "my-test",
		Outline: "H2: Introduction\nH3: Hook\nH2: Main Body\nH2: Conclusion",
		Author:  "Sam",
	}
	res, err := w.Run(context.Background(), spec)
	require.NoError(t, err)

	dir := filepath.Join(out, "my-test")
	assert.Equal(t, dir, res.Dir)
	assert.Equal(t, 3, res.Sections)
	assert.Equal(t, []string{"Introduction", "Main Body", "Conclusion"}, res.Generated)
	assert.Equal(t, []string{FAQLabel}, res.Backfilled)

	assert.Equal(t, []string{
		"01-introduction.md",
		"02-main-body.md",
		"03-conclusion.md",
		"04-frequently-asked-questions.md",
		"FULL_POST.md",
	}, listMarkdown(t, dir))

	calls := mock.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, []string{"Introduction", "Main Body", "Conclusion"}, sectionUsers(calls))
	assert.Contains(t, calls[0].System, "Introduction\nWith subheadings:\nHook")
	assert.Equal(t, prompts.FAQInstruction, calls[3].User)
	assert.Equal(t, prompts.MetadataInstruction, calls[4].User)

	full := readFile(t, filepath.Join(dir, store.FullPostFile))
	assert.True(t, strings.HasPrefix(full, "---\ntitle: Page Title\nmeta_title: Meta Title\n"))
	assert.Contains(t, full, "description: A description {with braces}.\n")
	assert.Contains(t, full, "\nslug: my-test\n")
	assert.Contains(t, full, "\ndate: 2024-05-01\n")
	assert.Contains(t, full, "\nauthor: Sam\n")
	assert.Contains(t, full, "\ntotal_tokens: 750\ninput_tokens: 500\noutput_tokens: 250\n")
	assert.Contains(t, full, "## Frequently Asked Questions")
	assert.Less(t, strings.Index(full, "## Main Body"), strings.Index(full, "## Frequently Asked Questions"))
	assert.Equal(t, filepath.Join(dir, store.FullPostFile), res.CompiledPath)
}

func TestRunWritesCostLedger(t *testing.T) {
	w, out := newTestWorkflow(t, writer{}.mock())
	spec := article.Spec{Title: "Ledger Post", Slug: "ledger", Outline: "H2: Introduction\nH2: Conclusion"}

	res, err := w.Run(context.Background(), spec)
	require.NoError(t, err)

	ledger := cost.Open(filepath.Join(out, "ledger", store.CostFile), "Ledger Post", cost.DefaultRates)
	assert.Equal(t, []string{"FAQ", "Metadata", "Section: Conclusion", "Section: Introduction"}, ledger.Labels())
	totals := ledger.Totals()
	assert.Equal(t, 400, totals.InputTokens)
	assert.Equal(t, 200, totals.OutputTokens)
	assert.Equal(t, totals, res.Totals)
}

func TestRunResumesAfterFailure(t *testing.T) {
	spec := article.Spec{
		Title:   "Resume",
		Slug:    "resume",
		Outline: "H2: Introduction\nH2: Setup\nH2: Usage\nH2: Tips",
	}

	failing := writer{fail: map[string]error{"Usage": &models.ProviderError{Provider: "test", StatusCode: 400, Message: "bad"}}}.mock()
	w, out := newTestWorkflow(t, failing)
	_, err := w.Run(context.Background(), spec)
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusCode(err))
	assert.Contains(t, err.Error(), "workflow: section 3 (Usage)")

	dir := filepath.Join(out, "resume")
	assert.Equal(t, []string{"01-introduction.md", "02-setup.md"}, listMarkdown(t, dir))

	second := writer{}.mock()
	w2 := New(second, w.opts)
	res, err := w2.Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ResumedAt)
	assert.Equal(t, []string{"Usage", "Tips"}, sectionUsers(second.Calls()))
	assert.Contains(t, second.Calls()[0].System, "Text about Setup.")
	assert.Equal(t, []string{ConclusionLabel, FAQLabel}, res.Backfilled)

	third := writer{}.mock()
	res, err = New(third, w.opts).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Empty(t, sectionUsers(third.Calls()))
	assert.Empty(t, res.Backfilled)
	require.Len(t, third.Calls(), 1)
	assert.Equal(t, prompts.MetadataInstruction, third.Calls()[0].User)

	assert.Equal(t, []string{
		"01-introduction.md",
		"02-setup.md",
		"03-usage.md",
		"04-tips.md",
		"05-conclusion.md",
		"06-frequently-asked-questions.md",
		"FULL_POST.md",
	}, listMarkdown(t, dir))
}

func TestBackfillOrderAndExactlyOnce(t *testing.T) {
	mock := writer{}.mock()
	w, out := newTestWorkflow(t, mock)
	spec := article.Spec{Title: "Backfill", Slug: "backfill", Outline: "H2: Introduction\nH2: Setup"}

	res, err := w.Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{ConclusionLabel, FAQLabel}, res.Backfilled)

	calls := mock.Calls()
	require.Len(t, calls, 5)
	conclusion, faq := calls[2], calls[3]
	assert.Equal(t, prompts.ConclusionInstruction, conclusion.User)
	assert.Equal(t, prompts.FAQInstruction, faq.User)

	assert.Contains(t, conclusion.System, "PREVIOUS TOPICS:\n- (Entire Blog Context)")
	assert.Contains(t, conclusion.System, "UPCOMING TOPICS:\n(None)")
	assert.Contains(t, faq.System, "UPCOMING TOPICS:\n- Conclusion")
	assert.Contains(t, faq.System, "Wrapping up.")

	dir := filepath.Join(out, "backfill")
	files := listMarkdown(t, dir)
	assert.Equal(t, []string{"01-introduction.md", "02-setup.md", "03-conclusion.md", "04-frequently-asked-questions.md", "FULL_POST.md"}, files)

	again := writer{}.mock()
	res, err = New(again, w.opts).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Empty(t, res.Backfilled)
	assert.Equal(t, files, listMarkdown(t, dir))
}

func TestResumeAfterFAQFailureKeepsConclusion(t *testing.T) {
	spec := article.Spec{Title: "Partial", Slug: "partial", Outline: "H2: A\nH2: B"}

	w, out := newTestWorkflow(t, writer{faqErr: errors.New("boom")}.mock())
	_, err := w.Run(context.Background(), spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow: backfill FAQ: boom")

	dir := filepath.Join(out, "partial")
	assert.Equal(t, []string{"01-a.md", "02-b.md", "03-conclusion.md"}, listMarkdown(t, dir))

	second := writer{}.mock()
	res, err := New(second, w.opts).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{FAQLabel}, res.Backfilled)

	calls := second.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, prompts.FAQInstruction, calls[0].User)
	assert.Contains(t, calls[0].System, "Wrapping up.")

	full := readFile(t, filepath.Join(dir, store.FullPostFile))
	assert.Contains(t, full, "## Conclusion\n\nWrapping up.")
	assert.Contains(t, full, "## Frequently Asked Questions")
	assert.Less(t, strings.Index(full, "Wrapping up."), strings.Index(full, "Q and A."))
}

func TestRerunKeepsSingleHeader(t *testing.T) {
	meta := `{"metaTitle": "Pros\n---\nCons", "metaDescription": "Pros --- and cons", "pageTitle": "Page"}`
	w, out := newTestWorkflow(t, writer{meta: meta}.mock())
	spec := article.Spec{Title: "Rerun", Slug: "rerun", Outline: "H2: Introduction"}

	_, err := w.Run(context.Background(), spec)
	require.NoError(t, err)
	path := filepath.Join(out, "rerun", store.FullPostFile)
	first := readFile(t, path)
	assert.Contains(t, first, "meta_title: Pros --- Cons\n")
	assert.Contains(t, first, "description: Pros --- and cons\n")

	for i := 0; i < 2; i++ {
		_, err := New(writer{meta: meta}.mock(), w.opts).Run(context.Background(), spec)
		require.NoError(t, err)
	}

	full := readFile(t, path)
	assert.Equal(t, 1, strings.Count(full, "estimated_cost_usd"))
	assert.Equal(t, 1, strings.Count(full, "slug: rerun"))
	assert.Equal(t, store.StripHeader(first), store.StripHeader(full))
}

func TestDuplicateHeadingsTrackedSeparately(t *testing.T) {
	w, out := newTestWorkflow(t, writer{}.mock())
	spec := article.Spec{Title: "Twice", Slug: "twice", Outline: "H2: Example\nH2: Example\nH2: Conclusion"}

	res, err := w.Run(context.Background(), spec)
	require.NoError(t, err)

	ledger := cost.Open(filepath.Join(out, "twice", store.CostFile), "Twice", cost.DefaultRates)
	assert.Contains(t, ledger.Labels(), "Section: Example")
	assert.Contains(t, ledger.Labels(), "Section: Example (2)")
	assert.Equal(t, 500, ledger.Totals().InputTokens)
	assert.Equal(t, res.Totals, ledger.Totals())
}

func TestEmDashSanitized(t *testing.T) {
	mock := writer{bodies: map[string]string{"Introduction": "Go — fast—simple — fun"}}.mock()
	w, out := newTestWorkflow(t, mock)
	spec := article.Spec{Title: "Dash", Slug: "dash", Outline: "H2: Introduction\nH2: Conclusion"}

	_, err := w.Run(context.Background(), spec)
	require.NoError(t, err)

	body := readFile(t, filepath.Join(out, "dash", "01-introduction.md"))
	assert.Equal(t, "\nGo - fast-simple - fun\n", body)
	full := readFile(t, filepath.Join(out, "dash", store.FullPostFile))
	assert.NotContains(t, full, "—")
}

func previousContext(system string) string {
	const marker = "PREVIOUS CONTEXT:\n"
	start := strings.Index(system, marker)
	if start < 0 {
		return ""
	}
	rest := system[start+len(marker):]
	if end := strings.LastIndex(rest, "\n\nGenerate the content for"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func TestContextTruncation(t *testing.T) {
	bodies := map[string]string{
		"One":   "BODY-ONE " + strings.Repeat("a", 3000),
		"Two":   "BODY-TWO " + strings.Repeat("b", 3000),
		"Three": "BODY-THREE " + strings.Repeat("c", 3000),
	}
	mock := writer{bodies: bodies}.mock()
	w, _ := newTestWorkflow(t, mock)
	spec := article.Spec{Title: "Long", Slug: "long", Outline: "H2: One\nH2: Two\nH2: Three"}

	_, err := w.Run(context.Background(), spec)
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 6)
	for _, c := range calls[:3] {
		ctx := previousContext(c.System)
		assert.LessOrEqual(t, utf8.RuneCountInString(ctx), DefaultContextTail, c.User)
	}
	assert.Empty(t, previousContext(calls[0].System))
	assert.Equal(t, DefaultContextTail, utf8.RuneCountInString(previousContext(calls[2].System)))

	for _, c := range calls[3:5] {
		ctx := previousContext(c.System)
		assert.Contains(t, ctx, bodies["One"])
		assert.Contains(t, ctx, bodies["Two"])
		assert.Contains(t, ctx, bodies["Three"])
	}
	assert.Contains(t, previousContext(calls[4].System), "Wrapping up.")
}

func TestMetadataFallbacks(t *testing.T) {
	t.Run("unparseable reply", func(t *testing.T) {
		raw := "No JSON here, just a long description. " + strings.Repeat("x", 300)
		w, out := newTestWorkflow(t, writer{meta: raw}.mock())
		res, err := w.Run(context.Background(), article.Spec{Title: "Fallback", Slug: "fb", Outline: "H2: Conclusion"})
		require.NoError(t, err)

		assert.Equal(t, "Fallback", res.Metadata.MetaTitle)
		assert.Equal(t, "Fallback", res.Metadata.PageTitle)
		assert.NotEmpty(t, res.Metadata.MetaDescription)
		assert.LessOrEqual(t, utf8.RuneCountInString(res.Metadata.MetaDescription), 160)

		full := readFile(t, filepath.Join(out, "fb", store.FullPostFile))
		assert.True(t, strings.HasPrefix(full, "---\ntitle: Fallback\n"))
	})

	t.Run("generation error is not fatal", func(t *testing.T) {
		w, _ := newTestWorkflow(t, writer{metaErr: errors.New("boom")}.mock())
		res, err := w.Run(context.Background(), article.Spec{Title: "Meta Err", Slug: "me", Outline: "H2: Conclusion"})
		require.NoError(t, err)
		assert.Equal(t, DefaultMetadata("Meta Err"), res.Metadata)
	})
}

func TestCompiledPostOverridesContextOnResume(t *testing.T) {
	w, out := newTestWorkflow(t, writer{}.mock())
	spec := article.Spec{Title: "Edit", Slug: "edit", Outline: "H2: Introduction\nH2: Conclusion"}
	_, err := w.Run(context.Background(), spec)
	require.NoError(t, err)

	path := filepath.Join(out, "edit", store.FullPostFile)
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: old\n---\n\nHand edited body.\n"), 0644))

	_, err = New(writer{}.mock(), w.opts).Run(context.Background(), spec)
	require.NoError(t, err)

	full := readFile(t, path)
	assert.True(t, strings.HasSuffix(full, "---\n\nHand edited body.\n"))
	assert.NotContains(t, full, "title: old")
}

func TestPublishDateAndHTML(t *testing.T) {
	w, out := newTestWorkflow(t, writer{}.mock(), func(o *Options) { o.RenderHTML = true })
	spec := article.Spec{Title: "Dated", Slug: "dated", Outline: "H2: Conclusion", PublishDate: "2025-01-31"}

	_, err := w.Run(context.Background(), spec)
	require.NoError(t, err)

	full := readFile(t, filepath.Join(out, "dated", store.FullPostFile))
	assert.Contains(t, full, "\ndate: 2025-01-31\n")

	page := readFile(t, filepath.Join(out, "dated", store.FullPostHTMLFile))
	assert.Contains(t, page, "<title>Page Title</title>")
	assert.Contains(t, page, "<h2")
	assert.NotContains(t, page, "slug: dated")
}

func TestEmptyOutlineIsNotAnError(t *testing.T) {
	mock := writer{}.mock()
	w, _ := newTestWorkflow(t, mock)

	res, err := w.Run(context.Background(), article.Spec{Title: "Empty", Slug: "empty", Outline: "Just notes\nH3: orphan"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sections)
	assert.Empty(t, mock.Calls())
}

func TestRunRejectsMissingSlug(t *testing.T) {
	w, _ := newTestWorkflow(t, writer{}.mock())
	_, err := w.Run(context.Background(), article.Spec{Title: "???"})
	assert.Error(t, err)
}

func TestImagePhase(t *testing.T) {
	text := writer{}.mock()
	imgs := &models.MockImages{}
	pipeline := images.New(imgs, text, progress.Quiet())
	pipeline.Pause = 0

	w, out := newTestWorkflow(t, text, func(o *Options) { o.Images = pipeline })
	spec := article.Spec{Title: "Pics", Slug: "pics", Outline: "H2: Introduction\nH2: Conclusion", IncludeImages: true}

	res, err := w.Run(context.Background(), spec)
	require.NoError(t, err)
	assert.NoError(t, res.ImageErr)
	assert.Equal(t, 2, res.Images)

	dir := filepath.Join(out, "pics")
	plan := readFile(t, filepath.Join(dir, store.PlanFile))
	assert.Contains(t, plan, "## For Section: Introduction")

	intro := readFile(t, filepath.Join(dir, "01-introduction.md"))
	assert.Contains(t, intro, "\n![Introduction](images/infographic-01-introduction.png)\n")
	_, err = os.Stat(filepath.Join(dir, "images", "infographic-02-conclusion.png"))
	assert.NoError(t, err)

	// Spec rows without the image flag never reach the pipeline.
	before := len(imgs.Prompts)
	spec.IncludeImages = false
	_, err = New(writer{}.mock(), w.opts).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, before, len(imgs.Prompts))
}

func TestImagePhaseFailureDoesNotFailRun(t *testing.T) {
	pipeline := images.New(nil, writer{}.mock(), progress.Quiet())
	w, _ := newTestWorkflow(t, writer{}.mock(), func(o *Options) { o.Images = pipeline })

	res, err := w.Run(context.Background(), article.Spec{Title: "NoImg", Slug: "noimg", Outline: "H2: Conclusion", IncludeImages: true})
	require.NoError(t, err)
	assert.Error(t, res.ImageErr)
	assert.NotEmpty(t, res.CompiledPath)
}

func TestRunAll(t *testing.T) {
	specs := []article.Spec{
		{Title: "Broken", Slug: "broken", Outline: "H2: Introduction"},
		{Title: "Fine", Slug: "fine", Outline: "H2: Introduction"},
	}
	bad := &models.ProviderError{Provider: "test", StatusCode: 401, Message: "unauthorized"}

	newGen := func() *models.Mock {
		return &models.Mock{Respond: func(n int, system, user string) (models.Result, error) {
			if strings.Contains(system, `"Broken"`) && strings.HasPrefix(user, sectionPrefix) {
				return models.Result{}, bad
			}
			return writer{}.respond(n, system, user)
		}}
	}

	t.Run("continue on error", func(t *testing.T) {
		w, out := newTestWorkflow(t, newGen())
		results, err := w.RunAll(context.Background(), specs, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, bad)
		require.Len(t, results, 1)
		assert.Equal(t, "fine", results[0].Slug)
		assert.FileExists(t, filepath.Join(out, "fine", store.FullPostFile))
	})

	t.Run("fail fast", func(t *testing.T) {
		gen := newGen()
		w, out := newTestWorkflow(t, gen)
		results, err := w.RunAll(context.Background(), specs, false)
		require.Error(t, err)
		assert.Empty(t, results)
		assert.NoDirExists(t, filepath.Join(out, "fine"))
		assert.Len(t, gen.Calls(), 1)
	})

	t.Run("cancelled context", func(t *testing.T) {
		w, _ := newTestWorkflow(t, newGen())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results, err := w.RunAll(ctx, specs, true)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, results)
	})
}

func TestNewDefaults(t *testing.T) {
	w := New(writer{}.mock(), Options{})
	assert.Equal(t, "output", w.opts.OutputDir)
	assert.Equal(t, DefaultContextTail, w.opts.ContextTail)
	assert.Equal(t, cost.DefaultRates, w.opts.Rates)
	assert.NotNil(t, w.opts.Reporter)
	assert.Equal(t, filepath.Join("output", "my-post"), w.ArticleDir(article.Spec{Slug: "My Post"}))
}

func TestGenerateImagesForWrittenArticle(t *testing.T) {
	text := writer{}.mock()
	imgs := &models.MockImages{}
	pipeline := images.New(imgs, text, progress.Quiet())
	pipeline.Pause = 0

	w, out := newTestWorkflow(t, text, func(o *Options) { o.Images = pipeline })
	spec := article.Spec{Title: "Later", Slug: "later", Outline: "H2: Introduction\nH2: Conclusion"}

	_, err := w.GenerateImages(context.Background(), spec, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been generated yet")

	_, err = w.Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Empty(t, imgs.Prompts)

	n, err := w.BuildPlan(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(out, "later", store.PlanFile))

	res, err := w.GenerateImages(context.Background(), spec, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Images)
	assert.Len(t, imgs.Prompts, 2)

	ledger := cost.Open(filepath.Join(out, "later", store.CostFile), "Later", cost.DefaultRates)
	totals := ledger.Totals()
	assert.Equal(t, 400, totals.InputTokens)
}

func TestGenerateImagesWithoutPipeline(t *testing.T) {
	w, _ := newTestWorkflow(t, writer{}.mock())
	_, err := w.GenerateImages(context.Background(), article.Spec{Title: "X", Slug: "x"}, true)
	assert.Error(t, err)
	_, err = w.BuildPlan(context.Background(), article.Spec{Title: "X", Slug: "x"})
	assert.Error(t, err)
}
