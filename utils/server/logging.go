package server

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/kris-hansen/scribe/utils/config"
)

// logger is a custom logger for HTTP requests, shared across the package
var logger = log.New(os.Stdout, "", log.LstdFlags)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func logRequest(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		var authInfo string
		if auth := r.Header.Get("Authorization"); auth != "" {
			authInfo = maskToken(auth)
		}

		config.DebugLog("Request details:")
		config.DebugLog("- Remote Address: %s", r.RemoteAddr)
		config.DebugLog("- Host: %s", r.Host)

		handler(wrapped, r)

		duration := time.Since(start)
		if wrapped.statusCode >= 400 {
			config.DebugLog("Error response: status=%d bytes=%d path=%s", wrapped.statusCode, wrapped.written, r.URL.Path)
		}

		logger.Printf("Request: method=%s path=%s query=%s auth=%s status=%d duration=%v",
			r.Method,
			r.URL.Path,
			r.URL.RawQuery,
			authInfo,
			wrapped.statusCode,
			duration)
	}
}
