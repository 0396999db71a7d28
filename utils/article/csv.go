package article

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/fileutil"
)

// columnAliases lists every header spelling seen in the content sheets, in
// lookup order. The typos are real and have to keep working.
var columnAliases = map[string][]string{
	"id":             {"No"},
	"title":          {"Title"},
	"slug":           {"Slug", "Slug "},
	"tone":           {"Tone"},
	"primary":        {"Primary Keyword"},
	"secondary":      {"Secondary keywords", "Secondary Keywords"},
	"audience":       {"Target Audience"},
	"outline":        {"Outline"},
	"wordCount":      {"Word Count"},
	"styleGuide":     {"E-E-A-T Writing Instrucution", "E-E-A-T Writing Instruction"},
	"faqs":           {"FAQs"},
	"author":         {"Author"},
	"imageInclude":   {"Image inculde", "Image include"},
	"heroImage":      {"Hero Image"},
	"bannerImage":    {"Inbox banner Image"},
	"referenceLinks": {"Refernce Link", "Reference Link"},
	"internalLinks":  {"Link"},
	"publishDate":    {"Publish Date"},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCSV reads the content sheet at path and returns one Spec per non-empty row.
func LoadCSV(path string) ([]Spec, error) {
	data, err := fileutil.SafeReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content sheet %s: %w", path, err)
	}
	return ParseCSV(data)
}

// ParseCSV maps raw CSV bytes to article specs.
func ParseCSV(data []byte) ([]Spec, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse content sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Untrimmed header names are kept too so "Slug " resolves either way.
	index := make(map[string]int)
	for i, h := range records[0] {
		if _, seen := index[h]; !seen {
			index[h] = i
		}
		trimmed := strings.TrimSpace(h)
		if _, seen := index[trimmed]; !seen {
			index[trimmed] = i
		}
	}

	var specs []Spec
	for n, row := range records[1:] {
		if blankRow(row) {
			continue
		}
		get := func(key string) string {
			for _, name := range columnAliases[key] {
				if i, ok := index[name]; ok && i < len(row) {
					if v := strings.TrimSpace(row[i]); v != "" {
						return v
					}
				}
			}
			return ""
		}

		spec := Spec{
			ID:                get("id"),
			Title:             get("title"),
			Slug:              get("slug"),
			Tone:              get("tone"),
			PrimaryKeyword:    get("primary"),
			SecondaryKeywords: get("secondary"),
			TargetAudience:    get("audience"),
			Outline:           get("outline"),
			WordCount:         get("wordCount"),
			StyleGuide:        get("styleGuide"),
			FAQs:              get("faqs"),
			Author:            get("author"),
			IncludeImages:     get("imageInclude") == "Yes",
			HeroImage:         get("heroImage"),
			BannerImage:       get("bannerImage"),
			ReferenceLinks:    get("referenceLinks"),
			InternalLinks:     get("internalLinks"),
			PublishDate:       get("publishDate"),
		}
		if spec.Title == "" && spec.Slug == "" {
			config.DebugLog("[CSV] Skipping row %d: no title or slug", n+2)
			continue
		}
		specs = append(specs, spec)
	}

	config.DebugLog("[CSV] Loaded %d article rows", len(specs))
	return specs, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
