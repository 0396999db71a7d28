// Package prompts renders the system and user prompts sent to the text
// model for each phase of an article.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/kris-hansen/scribe/utils/article"
)

// Headings and topic labels used for the backfilled sections.
const (
	ConclusionHeading  = "Conclusion"
	FAQHeading         = "Frequently Asked Questions"
	EntireContextTopic = "(Entire Blog Context)"
)

// User prompts for the single-shot phases.
const (
	ConclusionInstruction  = "Write the Conclusion section based on the blog content provided."
	FAQInstruction         = "Write the Frequently Asked Questions section based on the blog content provided."
	MetadataInstruction    = "Write the meta data in JSON format."
	InfographicInstruction = "Extract infographic details."

	// NoInfographic is the reply that marks a section as not worth an image.
	NoInfographic = "NO_INFOGRAPHIC"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"bullets": bullets,
}).ParseFS(templateFS, "templates/*.tmpl"))

var faqHeading = regexp.MustCompile(`faq|questions|q&a`)

// SectionInput is everything a section prompt is built from.
type SectionInput struct {
	// Heading is the section heading, optionally followed by its sub-headings.
	Heading  string
	Article  article.Spec
	Context  string
	Previous []string
	Upcoming []string
}

type sectionData struct {
	SectionInput
	IsIntroduction bool
	IsConclusion   bool
	IsFAQ          bool
}

// SectionInstruction is the user prompt for an outline section.
func SectionInstruction(heading string) string {
	return "Write the content for section: " + heading
}

// Section renders the system prompt for one section. Introduction,
// conclusion and FAQ headings pick up their extra rules.
func Section(in SectionInput) (string, error) {
	lower := strings.ToLower(in.Heading)
	return render("section", sectionData{
		SectionInput:   in,
		IsIntroduction: strings.Contains(lower, "introduction"),
		IsConclusion:   strings.Contains(lower, "conclusion"),
		IsFAQ:          faqHeading.MatchString(lower),
	})
}

// Metadata renders the system prompt asking for the SEO metadata JSON.
func Metadata(spec article.Spec) (string, error) {
	return render("metadata", spec)
}

// Infographic renders the system prompt that maps one section's content to
// an infographic description.
func Infographic(sectionContent string) (string, error) {
	return render("infographic", sectionContent)
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("error rendering %s prompt: %w", name, err)
	}
	return buf.String(), nil
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "(None)"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
