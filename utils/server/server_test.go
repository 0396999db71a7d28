package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/cost"
	"github.com/kris-hansen/scribe/utils/models"
	"github.com/kris-hansen/scribe/utils/store"
)

func init() {
	logger.SetOutput(io.Discard)
}

func seedArticle(t *testing.T, outputDir string) {
	t.Helper()
	st := store.New(filepath.Join(outputDir, "my-post"))
	require.NoError(t, st.EnsureDir())
	_, err := st.WriteSection(1, "Introduction", "Intro")
	require.NoError(t, err)
	_, err = st.WriteSection(2, "Conclusion", "Bye")
	require.NoError(t, err)
	_, err = st.WriteCompiled("---\ntitle: My Post\n---\n\nIntro\n")
	require.NoError(t, err)
	_, err = st.WriteImage("infographic-01-introduction.png", []byte("png"))
	require.NoError(t, err)

	ledger := cost.Open(st.CostPath(), "My Post", cost.DefaultRates)
	require.NoError(t, ledger.Track("Section: Introduction", &models.Usage{PromptTokens: 1000, CompletionTokens: 500}))

	require.NoError(t, os.MkdirAll(filepath.Join(outputDir, "empty"), 0755))
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListArticles(t *testing.T) {
	dir := t.TempDir()
	seedArticle(t, dir)
	srv := NewServer(dir, config.ServerConfig{})

	rec := get(t, srv, "/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 2)
	assert.Equal(t, "empty", resp.Articles[0].Slug)
	assert.Equal(t, 0, resp.Articles[0].Sections)

	post := resp.Articles[1]
	assert.Equal(t, "my-post", post.Slug)
	assert.Equal(t, "My Post", post.Title)
	assert.Equal(t, 2, post.Sections)
	assert.True(t, post.Compiled)
	assert.False(t, post.HTML)
	assert.Equal(t, 1, post.Images)
	assert.Equal(t, 1000, post.InputTokens)
	assert.Equal(t, 500, post.OutputTokens)
	assert.InDelta(t, 0.0105, post.Cost, 1e-9)
}

func TestArticleDetailAndPost(t *testing.T) {
	dir := t.TempDir()
	seedArticle(t, dir)
	srv := NewServer(dir, config.ServerConfig{})

	rec := get(t, srv, "/articles/my-post", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail ArticleDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, []string{"01-introduction.md", "02-conclusion.md"}, detail.Files)

	rec = get(t, srv, "/articles/my-post/post", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "title: My Post")

	rec = get(t, srv, "/articles/my-post/post?format=html", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, srv, "/articles/my-post/images/infographic-01-introduction.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}

func TestNotFoundAndInvalid(t *testing.T) {
	dir := t.TempDir()
	seedArticle(t, dir)
	srv := NewServer(dir, config.ServerConfig{})

	tests := []struct {
		path string
		want int
	}{
		{"/articles/missing", http.StatusNotFound},
		{"/articles/missing/post", http.StatusNotFound},
		{"/articles/my-post/images/nope.png", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, srv, tt.path, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestArticleDir(t *testing.T) {
	dir := t.TempDir()
	srv := NewServer(dir, config.ServerConfig{})

	got, err := srv.articleDir("my-post")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "my-post"), got)

	for _, slug := range []string{"", ".", "..", "../etc", "a/b", `a\b`, "x..y"} {
		_, err := srv.articleDir(slug)
		assert.Error(t, err, slug)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := NewServer(t.TempDir(), config.ServerConfig{})
	req := httptest.NewRequest(http.MethodDelete, "/articles", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := NewServer(t.TempDir(), config.ServerConfig{AuthEnabled: true, BearerToken: "secret"})
	rec := get(t, srv, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestListMissingOutputDir(t *testing.T) {
	srv := NewServer(filepath.Join(t.TempDir(), "nope"), config.ServerConfig{})
	rec := get(t, srv, "/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"articles":[]}`, rec.Body.String())
}
