// Package article holds the per-row article record and its CSV ingestion.
package article

import (
	"regexp"
	"strings"
)

// Spec is one input row. It is treated as read-only once loaded.
type Spec struct {
	ID                string
	Title             string
	Slug              string
	Tone              string
	PrimaryKeyword    string
	SecondaryKeywords string
	TargetAudience    string
	Outline           string
	WordCount         string
	StyleGuide        string
	FAQs              string
	Author            string
	IncludeImages     bool
	HeroImage         string
	BannerImage       string
	ReferenceLinks    string
	InternalLinks     string
	PublishDate       string
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of non-alphanumerics into a
// single hyphen.
func Slugify(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
}

// NormalizedSlug returns the directory key for the article. Rows without a
// slug fall back to the title.
func (s Spec) NormalizedSlug() string {
	if strings.TrimSpace(s.Slug) != "" {
		return Slugify(s.Slug)
	}
	return Slugify(s.Title)
}
