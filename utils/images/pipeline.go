package images

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/cost"
	"github.com/kris-hansen/scribe/utils/models"
	"github.com/kris-hansen/scribe/utils/outline"
	"github.com/kris-hansen/scribe/utils/progress"
	"github.com/kris-hansen/scribe/utils/prompts"
	"github.com/kris-hansen/scribe/utils/store"
)

// DefaultDimensions is the widescreen size requested for infographics.
var DefaultDimensions = models.Dimensions{Width: 1408, Height: 768}

// Pipeline drives plan building and image generation for one article at a
// time. Image work never touches the text resume state beyond appending
// links to existing section files.
type Pipeline struct {
	Images     models.ImageGenerator
	Text       models.Generator
	Dimensions models.Dimensions
	// Pause is the wait between plan calls.
	Pause    time.Duration
	Reporter *progress.Reporter
}

// New returns a pipeline with the default dimensions and plan pause.
func New(images models.ImageGenerator, text models.Generator, reporter *progress.Reporter) *Pipeline {
	return &Pipeline{
		Images:     images,
		Text:       text,
		Dimensions: DefaultDimensions,
		Pause:      500 * time.Millisecond,
		Reporter:   reporter,
	}
}

func (p *Pipeline) reporter() *progress.Reporter {
	if p.Reporter == nil {
		return progress.Quiet()
	}
	return p.Reporter
}

// BuildPlan asks the text model, section by section, for an infographic
// mapping and writes INFOGRAPHIC_PLAN.md. Sections answered with
// NO_INFOGRAPHIC are left out; per-section failures are reported and
// skipped. ledger may be nil.
func (p *Pipeline) BuildPlan(ctx context.Context, st *store.Store, sections []outline.Section, ledger *cost.Ledger) (int, error) {
	if p.Text == nil {
		return 0, fmt.Errorf("no text generator configured for infographic planning")
	}
	r := p.reporter()
	r.Phase("Analyzing %d sections for infographics...", len(sections))

	var sb strings.Builder
	sb.WriteString(planTitle + "\n\n")
	planned := 0

	for i, sec := range sections {
		r.Step("Analyzing section [%d/%d]: %s", i+1, len(sections), sec.Heading)

		content := sec.Heading
		body, ok, err := st.ReadSection(i+1, sec.Heading)
		if err != nil {
			return planned, err
		}
		if ok {
			content = strings.TrimSpace(leadingImage.ReplaceAllString(body, ""))
		} else {
			r.Warn("Section file not found: %s", store.SectionFilename(i+1, sec.Heading))
		}

		system, err := prompts.Infographic(content)
		if err != nil {
			return planned, err
		}
		res, err := p.Text.Generate(ctx, system, prompts.InfographicInstruction)
		switch {
		case err != nil && ctx.Err() != nil:
			return planned, ctx.Err()
		case err != nil:
			r.Error(err, "Error generating infographic for section %d", i+1)
		default:
			if ledger != nil {
				if err := ledger.Track("Infographic: "+sec.Heading, res.Usage); err != nil {
					return planned, err
				}
			}
			if strings.Contains(res.Text, prompts.NoInfographic) {
				r.Info("Skipped section %d (no infographic needed)", i+1)
			} else {
				sb.WriteString(planBlock(sec.Heading, res.Text))
				planned++
			}
		}

		if err := sleep(ctx, p.Pause); err != nil {
			return planned, err
		}
	}

	path, err := st.WritePlan(sb.String())
	if err != nil {
		return planned, err
	}
	r.Success("Infographic plan saved to %s (%d sections)", path, planned)
	return planned, nil
}

// Run generates one image per plan entry and appends a link to the
// matching section file. A missing plan is a warning, not an error. Entries
// that fail to generate are reported and skipped; re-running appends the
// links again.
func (p *Pipeline) Run(ctx context.Context, st *store.Store, sections []outline.Section) (int, error) {
	if p.Images == nil {
		return 0, fmt.Errorf("no image generator configured")
	}
	r := p.reporter()

	plan, ok, err := st.ReadPlan()
	if err != nil {
		return 0, err
	}
	if !ok {
		r.Warn("No %s found in %s, skipping images", store.PlanFile, st.Dir)
		return 0, nil
	}

	entries := ParsePlan(plan)
	r.Phase("Generating %d infographic(s)...", len(entries))

	generated := 0
	for _, entry := range entries {
		index := matchSection(sections, entry.SectionTitle)
		if index == 0 {
			r.Warn("No section matches plan entry %q, skipping", entry.SectionTitle)
			continue
		}

		r.Start("Generating " + entry.Filename)
		imgs, err := p.Images.GenerateImages(ctx, entry.Prompt, p.dimensions(), 1)
		r.Stop()
		if err != nil {
			if ctx.Err() != nil {
				return generated, ctx.Err()
			}
			r.Error(err, "Failed to generate %s", entry.Filename)
			continue
		}
		if len(imgs) == 0 {
			r.Warn("Provider returned no image for %s", entry.Filename)
			continue
		}

		rel, err := st.WriteImage(entry.Filename, imgs[0])
		if err != nil {
			return generated, err
		}
		name := store.SectionFilename(index, sections[index-1].Heading)
		if err := st.AppendToSection(name, imageLink(entry.SectionTitle, rel)); err != nil {
			return generated, err
		}
		config.DebugLog("[Images] Linked %s into %s", rel, name)
		generated++
	}

	r.Success("Generated %d image(s)", generated)
	return generated, nil
}

func (p *Pipeline) dimensions() models.Dimensions {
	if p.Dimensions.Width <= 0 || p.Dimensions.Height <= 0 {
		return DefaultDimensions
	}
	return p.Dimensions
}

// matchSection returns the 1-based index of the section with the given
// heading, or 0.
func matchSection(sections []outline.Section, title string) int {
	title = strings.TrimSpace(title)
	for i, s := range sections {
		if strings.EqualFold(strings.TrimSpace(s.Heading), title) {
			return i + 1
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
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
