// Package links fills in missing descriptions for the reference and
// internal link lists carried on an article row.
package links

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"github.com/kris-hansen/scribe/utils/article"
	"github.com/kris-hansen/scribe/utils/config"
)

const (
	separator      = " | "
	maxDescription = 160
)

// Enricher fetches pages for link lines that have a URL but no description.
type Enricher struct {
	collector *colly.Collector
	cache     map[string]string

	// Warnf receives fetch failures. The line is left as it was.
	Warnf func(format string, args ...interface{})
}

// NewEnricher creates an enricher with a bounded per-request timeout.
func NewEnricher(timeout time.Duration) *Enricher {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent("Mozilla/5.0 (compatible; Scribe/1.0; +http://github.com/kris-hansen/scribe)"),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	return &Enricher{
		collector: c,
		cache:     make(map[string]string),
		Warnf:     func(string, ...interface{}) {},
	}
}

// EnrichSpec returns a copy of spec with both link lists enriched.
func (e *Enricher) EnrichSpec(ctx context.Context, spec article.Spec) article.Spec {
	spec.ReferenceLinks = e.Enrich(ctx, spec.ReferenceLinks)
	spec.InternalLinks = e.Enrich(ctx, spec.InternalLinks)
	return spec
}

// Enrich rewrites each "Link | Description" line of raw, filling empty
// descriptions from the linked page. Lines that already have a description,
// are not URLs, or fail to fetch are kept unchanged.
func (e *Enricher) Enrich(ctx context.Context, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if ctx.Err() != nil {
			break
		}
		link, desc := splitLine(line)
		if desc != "" || !isHTTPURL(link) {
			continue
		}

		found, err := e.describe(link)
		if err != nil {
			e.Warnf("Could not describe link %s: %v", link, err)
			continue
		}
		if found != "" {
			lines[i] = link + separator + found
		}
	}
	return strings.Join(lines, "\n")
}

func splitLine(line string) (link, desc string) {
	parts := strings.SplitN(line, "|", 2)
	link = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		desc = strings.TrimSpace(parts[1])
	}
	return link, desc
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (e *Enricher) describe(link string) (string, error) {
	if d, ok := e.cache[link]; ok {
		return d, nil
	}

	body, err := e.fetch(link)
	if err != nil {
		return "", err
	}
	desc, err := Describe(link, body)
	if err != nil {
		return "", err
	}
	e.cache[link] = desc
	return desc, nil
}

func (e *Enricher) fetch(link string) ([]byte, error) {
	c := e.collector.Clone()

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	if err := c.Visit(link); err != nil {
		return nil, err
	}
	config.DebugLog("[Links] Fetched %s (%d bytes)", link, len(body))
	return body, nil
}

// Describe derives a one-line description of an HTML page: the meta
// description, then og:description, then the readability excerpt, then the
// page title.
func Describe(pageURL string, body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error parsing page: %w", err)
	}

	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content := strings.TrimSpace(doc.Find(sel).AttrOr("content", "")); content != "" {
			return clip(content), nil
		}
	}

	if parsed, err := url.Parse(pageURL); err == nil {
		if art, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil {
			if excerpt := strings.TrimSpace(art.Excerpt); excerpt != "" {
				return clip(excerpt), nil
			}
			if title := strings.TrimSpace(art.Title); title != "" {
				return clip(title), nil
			}
		}
	}

	return clip(strings.TrimSpace(doc.Find("title").First().Text())), nil
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > maxDescription {
		return string(r[:maxDescription])
	}
	return s
}
