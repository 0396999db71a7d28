// Package store maps article sections to files in the article's working
// directory and reconstructs generation progress from what is on disk.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/fileutil"
	"github.com/kris-hansen/scribe/utils/outline"
)

// Well-known files inside an article directory.
const (
	FullPostFile     = "FULL_POST.md"
	FullPostHTMLFile = "FULL_POST.html"
	PlanFile         = "INFOGRAPHIC_PLAN.md"
	CostFile         = "cost-report.json"
	ImagesDirName    = "images"

	ConclusionName = "conclusion"
	FAQName        = "frequently-asked-questions"
)

const maxSlugLen = 30

var (
	nonAlnum     = regexp.MustCompile(`(?i)[^a-z0-9]+`)
	numberPrefix = regexp.MustCompile(`^(\d+)-`)
	headerBlock  = regexp.MustCompile(`(?s)\A---\r?\n.*?\r?\n---\r?\n\s*`)
)

// SectionFilename is the deterministic file name for the section at the
// 1-based index. Only (index, heading) feed into it, so resume can rebuild
// it without a manifest.
func SectionFilename(index int, heading string) string {
	slug := strings.ToLower(nonAlnum.ReplaceAllString(heading, "-"))
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return fmt.Sprintf("%02d-%s.md", index, slug)
}

func backfillFilename(index int, name string) string {
	return fmt.Sprintf("%02d-%s.md", index, name)
}

// Wrap surrounds a generated body with the newlines every section file and
// the accumulated context carry.
func Wrap(body string) string {
	return "\n" + body + "\n"
}

// Store is one article's working directory.
type Store struct {
	Dir string

	// Warnf receives recoverable problems such as a missing section file.
	Warnf func(format string, args ...interface{})
}

// New returns a store rooted at dir. Nothing is created until EnsureDir.
func New(dir string) *Store {
	return &Store{
		Dir: dir,
		Warnf: func(format string, args ...interface{}) {
			fmt.Printf("[WARN] "+format+"\n", args...)
		},
	}
}

func (s *Store) warnf(format string, args ...interface{}) {
	if s.Warnf != nil {
		s.Warnf(format, args...)
	}
}

// Path joins name onto the article directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// EnsureDir creates the article directory if it is absent.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("error creating article directory %s: %w", s.Dir, err)
	}
	return nil
}

// numberedFiles lists the markdown section files with a numeric prefix,
// keyed by file name. The compiled post and the plan never count.
func (s *Store) numberedFiles() (map[string]int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading article directory %s: %w", s.Dir, err)
	}

	files := make(map[string]int)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") ||
			strings.Contains(name, "FULL_POST") || strings.Contains(name, "INFOGRAPHIC") {
			continue
		}
		m := numberPrefix.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files[name] = n
	}
	return files, nil
}

// ResumeIndex is the highest numeric prefix among the section files, i.e.
// the number of sections considered complete. A missing directory is 0.
func (s *Store) ResumeIndex() (int, error) {
	files, err := s.numberedFiles()
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, n := range files {
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

// SectionFiles lists the numbered section files in index order.
func (s *Store) SectionFiles() ([]string, error) {
	files, err := s.numberedFiles()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if files[names[i]] != files[names[j]] {
			return files[names[i]] < files[names[j]]
		}
		return names[i] < names[j]
	})
	return names, nil
}

// LoadContext rebuilds the accumulated article text for sections
// 1..resumeIndex. Missing section files are skipped with a warning. Past
// the outline only the backfilled Conclusion and FAQ files are loaded;
// anything else there is stale. When FULL_POST.md exists its body
// replaces the concatenation.
func (s *Store) LoadContext(sections []outline.Section, resumeIndex int) (string, error) {
	if resumeIndex <= 0 {
		return "", nil
	}

	var sb strings.Builder
	for i := 1; i <= resumeIndex; i++ {
		if i > len(sections) {
			backfill, err := s.readBackfill(i)
			if err != nil {
				return "", err
			}
			if backfill == "" {
				config.DebugLog("[Store] Index %d is beyond the outline, skipping", i)
				continue
			}
			sb.WriteString(Wrap(backfill))
			continue
		}
		name := SectionFilename(i, sections[i-1].Heading)
		data, err := os.ReadFile(s.Path(name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.warnf("Section file %s not found, skipping", name)
				continue
			}
			return "", fmt.Errorf("error reading section %s: %w", name, err)
		}
		sb.WriteString(Wrap(string(data)))
	}

	compiled, ok, err := s.readOptional(FullPostFile)
	if err != nil {
		return "", err
	}
	if ok {
		config.DebugLog("[Store] Using %s as accumulated context", FullPostFile)
		return StripHeader(compiled), nil
	}
	return sb.String(), nil
}

// readBackfill returns the Conclusion or FAQ file written at index, or ""
// when neither exists.
func (s *Store) readBackfill(index int) (string, error) {
	for _, name := range []string{ConclusionName, FAQName} {
		text, ok, err := s.readOptional(backfillFilename(index, name))
		if err != nil {
			return "", err
		}
		if ok {
			return text, nil
		}
	}
	return "", nil
}

// StripHeader removes a leading metadata block delimited by lines that are
// exactly "---".
func StripHeader(doc string) string {
	return headerBlock.ReplaceAllString(doc, "")
}

func (s *Store) readOptional(name string) (string, bool, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error reading %s: %w", name, err)
	}
	return string(data), true, nil
}

// WriteSection persists a generated outline section and returns its path.
func (s *Store) WriteSection(index int, heading, body string) (string, error) {
	return s.write(SectionFilename(index, heading), Wrap(body))
}

// WriteNamedSection persists a backfilled section such as NN-conclusion.md.
func (s *Store) WriteNamedSection(index int, name, body string) (string, error) {
	return s.write(backfillFilename(index, name), Wrap(body))
}

// ReadSection returns the stored text of an outline section.
func (s *Store) ReadSection(index int, heading string) (string, bool, error) {
	return s.readOptional(SectionFilename(index, heading))
}

// AppendToSection adds text to the end of an existing section file.
func (s *Store) AppendToSection(name, text string) error {
	f, err := os.OpenFile(s.Path(name), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("error opening section %s: %w", name, err)
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return fmt.Errorf("error appending to section %s: %w", name, err)
	}
	return f.Close()
}

// WriteCompiled overwrites FULL_POST.md.
func (s *Store) WriteCompiled(doc string) (string, error) {
	return s.write(FullPostFile, doc)
}

// ReadCompiled returns FULL_POST.md, reporting false when it has not been
// written yet.
func (s *Store) ReadCompiled() (string, bool, error) {
	return s.readOptional(FullPostFile)
}

// WriteHTML overwrites FULL_POST.html.
func (s *Store) WriteHTML(html string) (string, error) {
	return s.write(FullPostHTMLFile, html)
}

// ReadPlan returns INFOGRAPHIC_PLAN.md, reporting false when there is none.
func (s *Store) ReadPlan() (string, bool, error) {
	return s.readOptional(PlanFile)
}

// WritePlan overwrites INFOGRAPHIC_PLAN.md.
func (s *Store) WritePlan(plan string) (string, error) {
	return s.write(PlanFile, plan)
}

// CostPath is where the article's cost ledger lives.
func (s *Store) CostPath() string {
	return s.Path(CostFile)
}

// ImagesDir is the directory generated images are written to.
func (s *Store) ImagesDir() string {
	return s.Path(ImagesDirName)
}

// WriteImage stores an image under images/ and returns the path relative to
// the article directory, suitable for a markdown link.
func (s *Store) WriteImage(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.ImagesDir(), 0755); err != nil {
		return "", fmt.Errorf("error creating images directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(s.ImagesDir(), name), data, 0644); err != nil {
		return "", err
	}
	return ImagesDirName + "/" + name, nil
}

func (s *Store) write(name, content string) (string, error) {
	path := s.Path(name)
	if err := fileutil.WriteFileAtomic(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("error writing %s: %w", name, err)
	}
	config.DebugLog("[Store] Wrote %s (%d bytes)", path, len(content))
	return path, nil
}
