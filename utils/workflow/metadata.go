package workflow

import (
	"strings"

	"github.com/tidwall/gjson"
)

const fallbackDescriptionLen = 160

// Metadata is the SEO record placed in the compiled header.
type Metadata struct {
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	PageTitle       string `json:"pageTitle"`
}

// DefaultMetadata is used when metadata generation fails outright.
func DefaultMetadata(title string) Metadata {
	return Metadata{MetaTitle: title, PageTitle: title}
}

// ExtractMetadata reads the first top-level JSON object in raw. The model
// often wraps JSON in prose, so the object is located by brace matching.
// When nothing usable is found the record falls back to the title and the
// first 160 characters of raw; ok reports which path was taken.
func ExtractMetadata(title, raw string) (meta Metadata, ok bool) {
	obj, found := firstJSONObject(raw)
	if !found {
		return Metadata{
			MetaTitle:       title,
			PageTitle:       title,
			MetaDescription: truncateRunes(strings.TrimSpace(raw), fallbackDescriptionLen),
		}, false
	}

	parsed := gjson.Parse(obj)
	meta = Metadata{
		MetaTitle:       parsed.Get("metaTitle").String(),
		MetaDescription: parsed.Get("metaDescription").String(),
		PageTitle:       parsed.Get("pageTitle").String(),
	}
	if meta.MetaTitle == "" {
		meta.MetaTitle = title
	}
	return meta, true
}

// firstJSONObject returns the first balanced {...} span of s that is valid
// JSON. A span that never balances or does not parse restarts the scan at
// the next brace. Braces inside JSON strings are ignored.
func firstJSONObject(s string) (string, bool) {
	for offset := 0; offset < len(s); {
		start := strings.IndexByte(s[offset:], '{')
		if start < 0 {
			return "", false
		}
		start += offset
		if obj, ok := balancedSpan(s[start:]); ok && gjson.Valid(obj) {
			return obj, true
		}
		offset = start + 1
	}
	return "", false
}

// balancedSpan returns the prefix of s, which starts with '{', up to the
// matching closing brace.
func balancedSpan(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
