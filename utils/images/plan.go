// Package images builds the infographic plan for an article and turns it
// into generated images linked from the section files.
package images

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kris-hansen/scribe/utils/article"
)

const (
	planTitle     = "# Infographic Plan"
	sectionMarker = "## For Section:"
	maxNameSlug   = 30
)

var (
	visualDescription = regexp.MustCompile(`(?im)^[\s*\-]*Visual Description[\s*]*:[\s*]*(.*)$`)
	leadingImage      = regexp.MustCompile(`^!\[.*\]\(.*\)\n\n`)
)

// PlanEntry is one image to generate.
type PlanEntry struct {
	SectionTitle string
	Prompt       string
	Filename     string
}

// ParsePlan reads INFOGRAPHIC_PLAN.md. Blocks without a visual description
// are skipped; the rest are numbered in plan order.
func ParsePlan(text string) []PlanEntry {
	blocks := strings.Split(text, sectionMarker)
	var entries []PlanEntry
	for _, block := range blocks[1:] {
		title, rest, _ := strings.Cut(block, "\n")
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		m := visualDescription.FindStringSubmatch(rest)
		if m == nil {
			continue
		}
		prompt := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*"))
		if prompt == "" {
			continue
		}
		entries = append(entries, PlanEntry{
			SectionTitle: title,
			Prompt:       prompt,
			Filename:     Filename(len(entries)+1, title),
		})
	}
	return entries
}

// Filename is the image file name for the n-th plan entry.
func Filename(n int, sectionTitle string) string {
	slug := article.Slugify(sectionTitle)
	if len(slug) > maxNameSlug {
		slug = slug[:maxNameSlug]
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "section"
	}
	return fmt.Sprintf("infographic-%02d-%s.png", n, slug)
}

// planBlock renders one section of the plan file.
func planBlock(heading, mapping string) string {
	return fmt.Sprintf("%s %s\n%s\n\n", sectionMarker, heading, mapping)
}

// imageLink is the markdown appended to a section for a generated image.
func imageLink(title, rel string) string {
	return fmt.Sprintf("\n![%s](%s)\n", title, rel)
}
