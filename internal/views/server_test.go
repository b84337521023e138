package views_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/p-n-ai/pai-lms/internal/assignment"
	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/lmsapi"
	"github.com/p-n-ai/pai-lms/internal/views"
)

const catalogJSON = `[
	{"course_id":"c1","course_name":"Intro to SQL","subtracks":[
		{"subtrack_id":"s1","subtrack_name":"ETL","track_id":"t1","track_name":"Data"}]},
	{"course_id":"c2","course_name":"Kubernetes","subtracks":[
		{"subtrack_id":"s2","subtrack_name":"Containers","track_id":"t2","track_name":"Infra"}]},
	{"course_id":"c3","course_name":"Onboarding","subtracks":[]}
]`

// fakeBackend serves the LMS endpoints the views read and records writes.
type fakeBackend struct {
	mu        sync.Mutex
	assigned  map[string]string // course id -> due date
	assignDue []string
	unassigns int
	forbid    bool
	// failAfterWrite breaks the assigned-list read once a write went through.
	failAfterWrite bool
	readsDown      bool
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	json200 := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer admin-tok" {
				w.WriteHeader(http.StatusUnauthorized)
				json200(w, `{"detail":"Could not validate credentials"}`)
				return
			}
			if b.forbid {
				w.WriteHeader(http.StatusForbidden)
				json200(w, `{"detail":"Admin access required"}`)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("GET /api/auth/me", auth(func(w http.ResponseWriter, r *http.Request) {
		json200(w, `{"employee_id":"adm-1","employee_name":"Ada","email":"ada@example.com","role":"admin"}`)
	}))
	mux.HandleFunc("GET /api/admin/tracks", auth(func(w http.ResponseWriter, r *http.Request) {
		json200(w, `[{"track_id":"t1","track_name":"Data"},{"track_id":"t2","track_name":"Infra"}]`)
	}))
	mux.HandleFunc("GET /api/admin/subtracks", auth(func(w http.ResponseWriter, r *http.Request) {
		json200(w, `[
			{"subtrack_id":"s1","subtrack_name":"ETL","track_id":"t1"},
			{"subtrack_id":"s2","subtrack_name":"Containers","track_id":"t2"},
			{"subtrack_id":"s9","subtrack_name":"Lost","track_id":"t9"}]`)
	}))
	mux.HandleFunc("GET /api/admin/courses", auth(func(w http.ResponseWriter, r *http.Request) {
		json200(w, catalogJSON)
	}))
	mux.HandleFunc("GET /api/admin/complete-tree", auth(func(w http.ResponseWriter, r *http.Request) {
		json200(w, `[
			{"track_id":"t1","track_name":"Data","subtracks":[{"subtrack_id":"s1","subtrack_name":"ETL","courses":[]}]},
			{"track_id":"t2","track_name":"Infra","subtracks":[{"subtrack_id":"s2","subtrack_name":"Containers","courses":[]}]}]`)
	}))
	mux.HandleFunc("GET /api/admin/employees/{id}/courses", auth(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.readsDown {
			w.WriteHeader(http.StatusServiceUnavailable)
			json200(w, `{"detail":"Service unavailable"}`)
			return
		}
		var out []assignment.AssignedCourse
		for id, due := range b.assigned {
			out = append(out, assignment.AssignedCourse{CourseID: id, DueDate: due})
		}
		w.Header().Set("Content-Type", "application/json")
		if out == nil {
			out = []assignment.AssignedCourse{}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	mux.HandleFunc("POST /api/admin/employees/{id}/courses/{cid}", auth(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			DueDate string `json:"due_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode assign body: %v", err)
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.assigned[r.PathValue("cid")] = body.DueDate
		b.assignDue = append(b.assignDue, body.DueDate)
		b.readsDown = b.failAfterWrite
		json200(w, `{"message":"ok"}`)
	}))
	mux.HandleFunc("DELETE /api/admin/employees/{id}/courses/{cid}", auth(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.assigned, r.PathValue("cid"))
		b.unassigns++
		b.readsDown = b.failAfterWrite
		json200(w, `{"message":"ok"}`)
	}))
	return mux
}

func (b *fakeBackend) sentDueDates() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.assignDue...)
}

func (b *fakeBackend) unassignCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unassigns
}

type harness struct {
	backend *fakeBackend
	events  *audit.MemoryLogger
	handler http.Handler
}

func setup(t *testing.T, opts ...views.Option) *harness {
	t.Helper()
	b := &fakeBackend{assigned: map[string]string{"c2": "2025-03-01"}}
	upstream := httptest.NewServer(b.handler(t))
	t.Cleanup(upstream.Close)

	events := audit.NewMemoryLogger()
	opts = append([]views.Option{views.WithEvents(events)}, opts...)
	srv := views.New(lmsapi.New(upstream.URL), opts...)
	return &harness{backend: b, events: events, handler: srv.Handler()}
}

func (h *harness) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer admin-tok")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	h := setup(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz returns 200", "/healthz", http.StatusOK, `{"status":"ok"}`},
		{"readyz returns 200", "/readyz", http.StatusOK, `{"status":"ready"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	h := setup(t, views.WithCheck("database", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decode[struct {
		Failed map[string]string `json:"failed"`
	}](t, rec)
	if body.Failed["database"] != "connection refused" {
		t.Errorf("failed = %v", body.Failed)
	}
}

func TestViews_RequireBearer(t *testing.T) {
	h := setup(t)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/views/tree", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestTreeView(t *testing.T) {
	h := setup(t)
	rec := h.do(t, http.MethodGet, "/views/tree")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	v := decode[views.TreeView](t, rec)

	if len(v.Tree) != 2 || v.Courses != 2 {
		t.Fatalf("tree = %+v, courses = %d", v.Tree, v.Courses)
	}
	if got := v.Tree[0].Subtracks[0].Courses[0].ID; got != "c1" {
		t.Errorf("first course = %q, want c1", got)
	}
	if len(v.Warnings) != 1 || v.Warnings[0].ID != "s9" {
		t.Errorf("warnings = %+v, want orphan s9", v.Warnings)
	}
}

func TestCoursesView_Filter(t *testing.T) {
	h := setup(t)

	v := decode[views.CoursesView](t, h.do(t, http.MethodGet, "/views/courses?q=etl"))
	if v.Matches != 1 {
		t.Fatalf("matches = %d, want 1", v.Matches)
	}
	if got := v.Grouping.Courses("Data", "ETL"); len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("Data/ETL = %+v", got)
	}

	all := decode[views.CoursesView](t, h.do(t, http.MethodGet, "/views/courses"))
	if all.Matches != 3 {
		t.Errorf("unfiltered matches = %d, want 3", all.Matches)
	}
	// c3 has no memberships: it matches but is in no bucket
	if got := all.Grouping.Courses("Unassigned", "Unassigned"); len(got) != 0 {
		t.Errorf("Unassigned bucket = %+v, want empty", got)
	}
	if len(all.Grouping.Tracks) != 2 {
		t.Errorf("tracks = %+v, want Data and Infra", all.Grouping.Tracks)
	}
}

func TestSubtracksView(t *testing.T) {
	h := setup(t)
	v := decode[views.SubtracksView](t, h.do(t, http.MethodGet, "/views/subtracks?q=infra"))
	if len(v.Groups) != 1 || v.Groups[0].TrackID != "t2" || v.Groups[0].Subtracks[0].SubTrackID != "s2" {
		t.Errorf("groups = %+v", v.Groups)
	}
}

func TestAssignmentsView(t *testing.T) {
	h := setup(t)
	v := decode[views.AssignmentsView](t, h.do(t, http.MethodGet, "/views/employees/emp-1/assignments"))

	if len(v.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(v.Entries))
	}
	for _, e := range v.Entries {
		if want := e.Course.ID == "c2"; e.Assigned != want {
			t.Errorf("%s assigned = %v, want %v", e.Course.ID, e.Assigned, want)
		}
	}
	if len(v.Assigned) != 1 || v.Assigned[0].DueDate != "2025-03-01" {
		t.Errorf("assigned = %+v", v.Assigned)
	}
}

func TestAssign(t *testing.T) {
	h := setup(t)
	rec := h.do(t, http.MethodPost, "/views/employees/emp-1/assignments/c1?due_date=2025-06-30")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	v := decode[views.AssignmentsView](t, rec)
	if len(v.Assigned) != 2 {
		t.Errorf("assigned after reload = %+v", v.Assigned)
	}
	if sent := h.backend.sentDueDates(); len(sent) != 1 || sent[0] != "2025-06-30" {
		t.Errorf("due dates sent = %v", sent)
	}

	events := h.events.Events()
	if len(events) != 1 || events[0].Actor != "adm-1" || events[0].Action != audit.ActionCourseAssigned {
		t.Errorf("events = %+v", events)
	}
}

func TestAssign_InvalidDueDate(t *testing.T) {
	h := setup(t)
	rec := h.do(t, http.MethodPost, "/views/employees/emp-1/assignments/c1?due_date=30/06/2025")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(h.backend.sentDueDates()) != 0 {
		t.Error("invalid date reached the backend")
	}
}

func TestUnassign(t *testing.T) {
	h := setup(t)

	rec := h.do(t, http.MethodDelete, "/views/employees/emp-1/assignments/c2")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed status = %d, want 400", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["detail"] != assignment.ConfirmPrompt {
		t.Errorf("detail = %q", body["detail"])
	}
	if h.backend.unassignCount() != 0 {
		t.Fatal("unconfirmed unassign reached the backend")
	}

	rec = h.do(t, http.MethodDelete, "/views/employees/emp-1/assignments/c2?confirm=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if v := decode[views.AssignmentsView](t, rec); len(v.Assigned) != 0 {
		t.Errorf("assigned after unassign = %+v", v.Assigned)
	}
	if n := h.backend.unassignCount(); n != 1 {
		t.Errorf("unassigns = %d", n)
	}
}

func TestAssignmentChange_ReloadFailure(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		want   string
	}{
		{"assign", http.MethodPost, "/views/employees/emp-1/assignments/c1",
			"Course assigned, but the updated assignments could not be loaded"},
		{"unassign", http.MethodDelete, "/views/employees/emp-1/assignments/c2?confirm=true",
			"Course removed, but the updated assignments could not be loaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t)
			h.backend.mu.Lock()
			h.backend.failAfterWrite = true
			h.backend.mu.Unlock()

			rec := h.do(t, tt.method, tt.target)
			if rec.Code != http.StatusBadGateway {
				t.Fatalf("status = %d, want 502: %s", rec.Code, rec.Body.String())
			}
			if body := decode[map[string]string](t, rec); body["detail"] != tt.want {
				t.Errorf("detail = %q, want %q", body["detail"], tt.want)
			}
			if n := len(h.events.Events()); n != 1 {
				t.Errorf("events = %d, want the saved action recorded", n)
			}
		})
	}
}

func TestBackendErrorSurfaced(t *testing.T) {
	h := setup(t)
	h.backend.forbid = true

	rec := h.do(t, http.MethodGet, "/views/courses")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["detail"] != "Admin access required" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestExportTree(t *testing.T) {
	h := setup(t)
	rec := h.do(t, http.MethodGet, "/exports/tree.xlsx")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	// xlsx files are zip archives
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Error("body is not an xlsx archive")
	}
}
