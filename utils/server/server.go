// Package server is a read-only preview server for generated articles. It
// never writes to the output directory.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kris-hansen/scribe/utils/config"
)

const shutdownTimeout = 5 * time.Second

// Server represents the HTTP server
type Server struct {
	mux       *http.ServeMux
	config    *config.ServerConfig
	outputDir string
}

// NewServer builds the handler tree for outputDir.
func NewServer(outputDir string, serverConfig config.ServerConfig) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		config:    &serverConfig,
		outputDir: outputDir,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// articleDir resolves slug to a directory directly under the output dir.
func (s *Server) articleDir(slug string) (string, error) {
	if slug == "" || slug == "." || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return "", fmt.Errorf("invalid article slug")
	}

	absOutput, err := filepath.Abs(s.outputDir)
	if err != nil {
		return "", fmt.Errorf("invalid output directory path")
	}
	absPath, err := filepath.Abs(filepath.Join(s.outputDir, slug))
	if err != nil {
		return "", fmt.Errorf("invalid path")
	}
	if filepath.Dir(absPath) != absOutput {
		return "", fmt.Errorf("path attempts to escape output directory")
	}
	return absPath, nil
}

// routes sets up the server routes
func (s *Server) routes() {
	s.mux.HandleFunc("/health", logRequest(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}))

	s.mux.HandleFunc("/articles", logRequest(s.authorized(s.handleListArticles)))
	s.mux.HandleFunc("/articles/{slug}", logRequest(s.authorized(s.handleArticle)))
	s.mux.HandleFunc("/articles/{slug}/post", logRequest(s.authorized(s.handlePost)))
	s.mux.HandleFunc("/articles/{slug}/images/{name}", logRequest(s.authorized(s.handleImage)))
}

// authorized wraps a GET handler with the bearer check.
func (s *Server) authorized(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if !checkAuth(s.config, w, r) {
			return
		}
		handler(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: msg})
}

// Run serves cfg.OutputDir until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %v", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      NewServer(cfg.OutputDir, cfg.Server),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("Starting preview server on port %d...\n", cfg.Server.Port)
	fmt.Printf("Output directory: %s\n", cfg.OutputDir)
	if cfg.Server.AuthEnabled {
		fmt.Println("Authentication is enabled. Bearer token required.")
		fmt.Printf("Example usage: curl -H 'Authorization: Bearer %s' 'http://localhost:%d/articles'\n",
			maskToken(cfg.Server.BearerToken), cfg.Server.Port)
	} else {
		fmt.Printf("Example usage: curl 'http://localhost:%d/articles'\n", cfg.Server.Port)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed to start: %v", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
