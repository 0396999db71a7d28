// Package outline turns the H2/H3 heading outline of an article row into
// ordered sections.
package outline

import "strings"

const (
	sectionMarker    = "H2:"
	subHeadingMarker = "H3:"
)

// Section is one H2 block of the outline with the H3 headings nested under it.
// Body is filled in while the section is being generated.
type Section struct {
	Heading     string
	SubHeadings []string
	Body        string
}

// Parse scans raw line by line. Only lines starting with an H marker are
// considered; H3 lines before the first H2 are dropped. An outline without
// any H2 yields an empty slice.
func Parse(raw string) []Section {
	var sections []Section
	var current *Section

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "H") {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, sectionMarker):
			if current != nil {
				sections = append(sections, *current)
			}
			current = &Section{
				Heading:     strings.TrimSpace(strings.TrimPrefix(trimmed, sectionMarker)),
				SubHeadings: []string{},
			}
		case strings.HasPrefix(trimmed, subHeadingMarker) && current != nil:
			current.SubHeadings = append(current.SubHeadings, strings.TrimSpace(strings.TrimPrefix(trimmed, subHeadingMarker)))
		}
	}

	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}

// Combined renders the heading with its sub-headings for use in a prompt.
func (s Section) Combined() string {
	if len(s.SubHeadings) == 0 {
		return s.Heading
	}
	return s.Heading + "\nWith subheadings:\n" + strings.Join(s.SubHeadings, "\n")
}

// Headings returns the primary heading of every section, in order.
func Headings(sections []Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Heading
	}
	return out
}
