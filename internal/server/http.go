package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *ConfigServer) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/configs/{service}", s.handleCreateConfig)
	mux.HandleFunc("GET /v1/configs/{service}", s.handleGetConfig)
	mux.HandleFunc("PUT /v1/configs/{service}/versions/{version}", s.handlePutVersion)
	mux.HandleFunc("GET /v1/configs/{service}/versions/{version}", s.handleGetVersion)
	mux.HandleFunc("GET /v1/configs/{service}/history", s.handleGetHistory)
	mux.HandleFunc("GET /v1/services", s.handleListServices)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return RequestLogger(mux)
}

// handleHealth handles GET /v1/health. It reports 503 when the storage
// backend cannot be reached.
func (s *ConfigServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "connected",
	})
}

// RequestLogger wraps an http.Handler and logs one line per request with a
// short request ID, method, path, status, and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID, err := nanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 10)
		if err != nil {
			reqID = "unknown"
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		slog.Info("http request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// statusRecorder captures the response status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
