package store

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Mandatory reports which trailing sections already exist. MaxIndex is the
// highest section number on disk and the slot counter for backfills.
type Mandatory struct {
	HasFAQ        bool
	HasConclusion bool
	MaxIndex      int
}

var (
	faqMarker        = regexp.MustCompile(`(?i)#\s*Frequently Question`)
	conclusionMarker = regexp.MustCompile(`(?i)#\s*Conclusion`)
)

// DetectMandatory rescans the directory for FAQ and Conclusion files, then
// falls back to headings in the accumulated context. The two checks are
// independent.
func (s *Store) DetectMandatory(context string) (Mandatory, error) {
	files, err := s.numberedFiles()
	if err != nil {
		return Mandatory{}, err
	}

	var m Mandatory
	for name, n := range files {
		if n > m.MaxIndex {
			m.MaxIndex = n
		}
		lower := strings.ToLower(name)
		if strings.Contains(lower, "faq") || strings.Contains(lower, "questions") {
			m.HasFAQ = true
		}
		if strings.Contains(lower, "conclusion") {
			m.HasConclusion = true
		}
	}

	if m.HasFAQ && m.HasConclusion {
		return m, nil
	}

	faq, conclusion := scanHeadings(context)
	if !m.HasFAQ && (faq || faqMarker.MatchString(context)) {
		m.HasFAQ = true
	}
	if !m.HasConclusion && (conclusion || conclusionMarker.MatchString(context)) {
		m.HasConclusion = true
	}
	return m, nil
}

// scanHeadings parses markdown and checks heading text for the FAQ and
// Conclusion topics.
func scanHeadings(markdown string) (faq, conclusion bool) {
	if strings.TrimSpace(markdown) == "" {
		return false, false
	}
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		title := strings.ToLower(headingText(n, src))
		if strings.Contains(title, "frequently asked question") || strings.Contains(title, "faq") {
			faq = true
		}
		if strings.Contains(title, "conclusion") {
			conclusion = true
		}
		return ast.WalkSkipChildren, nil
	})
	return faq, conclusion
}

func headingText(heading ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				sb.Write(t.Segment.Value(src))
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
