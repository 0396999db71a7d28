package server

import (
	"net/http"
	"strings"

	"github.com/kris-hansen/scribe/utils/config"
)

func checkAuth(serverConfig *config.ServerConfig, w http.ResponseWriter, r *http.Request) bool {
	if !serverConfig.AuthEnabled {
		config.DebugLog("Auth check skipped: server auth is disabled")
		return true
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		config.DebugLog("Auth failed: no Authorization header present in request")
		writeError(w, http.StatusUnauthorized, "Authorization header required")
		return false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		config.DebugLog("Auth failed: malformed Authorization header: %s", maskToken(authHeader))
		writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
		return false
	}

	if parts[1] != serverConfig.BearerToken {
		config.DebugLog("Auth failed: invalid bearer token provided")
		writeError(w, http.StatusUnauthorized, "Invalid bearer token")
		return false
	}

	config.DebugLog("Auth successful: valid bearer token")
	return true
}

// maskToken masks a token for secure logging by showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
