// Package server exposes the workflow engine over a small JSON HTTP
// API. Handlers are thin: they translate requests into engine and
// reconciler calls and map the workflow error taxonomy onto HTTP
// status codes.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskdeck/taskdeck/internal/engine"
	"github.com/taskdeck/taskdeck/internal/rules"
	"github.com/taskdeck/taskdeck/internal/store"
)

// Server wires the flat-file store, the rule table provider, and the
// transition engine behind an http.Handler.
type Server struct {
	store    *store.DirStore
	provider *rules.Provider
	engine   *engine.Engine
}

// New creates a Server over an existing store, provider, and engine.
func New(st *store.DirStore, provider *rules.Provider, eng *engine.Engine) *Server {
	return &Server{store: st, provider: provider, engine: eng}
}

// Handler returns the routed API handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/project", s.handleProject)
	mux.HandleFunc("POST /api/tasks/{id}/transition", s.handleTransition)
	mux.HandleFunc("GET /api/tasks/{id}/documents", s.handleDocuments)
	mux.HandleFunc("GET /api/tasks/{id}/commands", s.handleCommands)
	return withLogging(mux)
}

// withLogging logs one line per request with method, path, status, and
// duration.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// apiError is the wire form of a failed request.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

// writeWorkflowError maps the workflow error taxonomy onto HTTP status
// codes. Client errors (bad command, illegal transition, unknown task)
// get 4xx; side-effect and read failures are server faults.
func writeWorkflowError(w http.ResponseWriter, err error) {
	code := engine.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case engine.ErrCodeInvalidCommand:
		status = http.StatusBadRequest
	case engine.ErrCodeNotFound:
		status = http.StatusNotFound
	case engine.ErrCodeInvalidTransition:
		status = http.StatusConflict
	case engine.ErrCodeSideEffectFailed, engine.ErrCodeFileReadError:
		status = http.StatusInternalServerError
	case "":
		writeError(w, status, string(engine.ErrCodeFileReadError), err.Error())
		return
	}
	writeError(w, status, string(code), err.Error())
}
