package server

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/cost"
	"github.com/kris-hansen/scribe/utils/fileutil"
	"github.com/kris-hansen/scribe/utils/store"
)

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil && !os.IsNotExist(err) {
		writeError(w, http.StatusInternalServerError, "Error reading output directory")
		return
	}

	articles := []ArticleSummary{}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		summary, _, err := summarize(e.Name(), filepath.Join(s.outputDir, e.Name()))
		if err != nil {
			config.DebugLog("[Server] Skipping %s: %v", e.Name(), err)
			continue
		}
		articles = append(articles, summary)
	}
	sort.Slice(articles, func(i, j int) bool { return articles[i].Slug < articles[j].Slug })

	writeJSON(w, http.StatusOK, ListResponse{Success: true, Articles: articles})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	dir, ok := s.existingArticle(w, slug)
	if !ok {
		return
	}

	summary, files, err := summarize(slug, dir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error reading article")
		return
	}
	writeJSON(w, http.StatusOK, ArticleDetail{ArticleSummary: summary, Files: files})
}

// handlePost serves FULL_POST.md, or FULL_POST.html with ?format=html.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	dir, ok := s.existingArticle(w, r.PathValue("slug"))
	if !ok {
		return
	}

	name, contentType := store.FullPostFile, "text/markdown; charset=utf-8"
	if r.URL.Query().Get("format") == "html" {
		name, contentType = store.FullPostHTMLFile, "text/html; charset=utf-8"
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, name+" has not been written yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error reading "+name)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	dir, ok := s.existingArticle(w, r.PathValue("slug"))
	if !ok {
		return
	}

	name := r.PathValue("name")
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		writeError(w, http.StatusBadRequest, "Invalid image name")
		return
	}
	path := filepath.Join(dir, store.ImagesDirName, name)
	if exists, _ := fileutil.Exists(path); !exists {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}
	http.ServeFile(w, r, path)
}

// existingArticle resolves slug and writes the error response when it is
// invalid or missing.
func (s *Server) existingArticle(w http.ResponseWriter, slug string) (string, bool) {
	dir, err := s.articleDir(slug)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		writeError(w, http.StatusNotFound, "Article not found")
		return "", false
	}
	return dir, true
}

// summarize reads the progress of one article directory from disk.
func summarize(slug, dir string) (ArticleSummary, []string, error) {
	st := store.New(dir)
	files, err := st.SectionFiles()
	if err != nil {
		return ArticleSummary{}, nil, err
	}

	summary := ArticleSummary{Slug: slug, Sections: len(files)}
	summary.Compiled, _ = fileutil.Exists(st.Path(store.FullPostFile))
	summary.HTML, _ = fileutil.Exists(st.Path(store.FullPostHTMLFile))
	summary.Plan, _ = fileutil.Exists(st.Path(store.PlanFile))

	if images, err := os.ReadDir(st.ImagesDir()); err == nil {
		for _, img := range images {
			if !img.IsDir() {
				summary.Images++
			}
		}
	}

	if title, totals, ok := readTotals(st.CostPath()); ok {
		summary.Title = title
		summary.InputTokens = totals.InputTokens
		summary.OutputTokens = totals.OutputTokens
		summary.Cost = totals.Cost
	}
	return summary, files, nil
}

// readTotals returns the first title in a cost report that carries a TOTAL.
func readTotals(path string) (title string, totals cost.Entry, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil || !gjson.ValidBytes(data) {
		return "", cost.Entry{}, false
	}

	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		total := value.Get(cost.TotalLabel)
		if !total.Exists() {
			return true
		}
		title = key.String()
		totals = cost.Entry{
			InputTokens:  int(total.Get("inputTokens").Int()),
			OutputTokens: int(total.Get("outputTokens").Int()),
			Cost:         total.Get("cost").Float(),
		}
		ok = true
		return false
	})
	return title, totals, ok
}
