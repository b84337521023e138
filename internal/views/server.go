// Package views serves the derived read models (assembled tree, grouped
// catalog, subtrack picker and assignment overlay) as JSON over HTTP. Every
// request fetches fresh data from the backend using the caller's bearer token.
package views

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/p-n-ai/pai-lms/internal/assignment"
	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/lmsapi"
	"github.com/p-n-ai/pai-lms/internal/platform/apierror"
	"github.com/p-n-ai/pai-lms/internal/platform/validate"
)

// Check reports whether a dependency is ready.
type Check func(ctx context.Context) error

// Server holds the dependencies of the view handlers.
type Server struct {
	client *lmsapi.Client
	events audit.Logger
	checks map[string]Check
}

// Option configures a Server.
type Option func(*Server)

// WithEvents records assign and unassign actions.
func WithEvents(events audit.Logger) Option {
	return func(s *Server) {
		if events != nil {
			s.events = events
		}
	}
}

// WithCheck adds a named readiness check next to the backend ping.
func WithCheck(name string, c Check) Option {
	return func(s *Server) {
		s.checks[name] = c
	}
}

// New creates a Server that calls the backend through client.
func New(client *lmsapi.Client, opts ...Option) *Server {
	s := &Server{
		client: client,
		events: audit.NopLogger{},
		checks: map[string]Check{"lms_api": client.Ping},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /views/tree", s.withClient(s.handleTree))
	mux.HandleFunc("GET /views/courses", s.withClient(s.handleCourses))
	mux.HandleFunc("GET /views/subtracks", s.withClient(s.handleSubtracks))
	mux.HandleFunc("GET /views/employees/{id}/assignments", s.withClient(s.handleAssignments))
	mux.HandleFunc("POST /views/employees/{id}/assignments/{courseID}", s.withClient(s.handleAssign))
	mux.HandleFunc("DELETE /views/employees/{id}/assignments/{courseID}", s.withClient(s.handleUnassign))

	mux.HandleFunc("GET /exports/tree.xlsx", s.withClient(s.handleExportTree))
	mux.HandleFunc("GET /exports/employees/{id}/assignments.xlsx", s.withClient(s.handleExportAssignments))
	return logRequests(mux)
}

type clientHandler func(w http.ResponseWriter, r *http.Request, c *lmsapi.Client)

// withClient requires a bearer token and hands the handler a client that
// forwards it to the backend.
func (s *Server) withClient(h clientHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearer(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Not authenticated"})
			return
		}
		h(w, r, s.client.WithToken(tok))
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(h, "Bearer ")
	tok = strings.TrimSpace(tok)
	return tok, ok && tok != ""
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// writeError maps err to a status and a {"detail"} body. Backend errors keep
// the backend status and detail.
func writeError(w http.ResponseWriter, err error, fallback string) {
	status := http.StatusBadGateway
	var verrs validate.Errors
	switch {
	case apierror.Status(err) != 0:
		status = apierror.Status(err)
	case errors.Is(err, assignment.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, assignment.ErrNotConfirmed),
		errors.Is(err, assignment.ErrInvalidDueDate),
		errors.As(err, &verrs):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	msg := apierror.Message(err, fallback)
	if status == http.StatusBadRequest && msg == fallback {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError {
		slog.Error("view request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Detail: msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
