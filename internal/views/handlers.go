package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-lms/internal/assignment"
	"github.com/p-n-ai/pai-lms/internal/hierarchy"
	"github.com/p-n-ai/pai-lms/internal/lmsapi"
	"github.com/p-n-ai/pai-lms/internal/report"
)

// TreeView is the response of GET /views/tree.
type TreeView struct {
	Tree     hierarchy.Tree               `json:"tree"`
	Warnings []hierarchy.IntegrityWarning `json:"warnings"`
	Courses  int                          `json:"course_count"`
}

// CoursesView is the response of GET /views/courses.
type CoursesView struct {
	Query    string             `json:"query"`
	Matches  int                `json:"matches"`
	Grouping hierarchy.Grouping `json:"grouping"`
}

// SubtracksView is the response of GET /views/subtracks.
type SubtracksView struct {
	Query  string                    `json:"query"`
	Groups []hierarchy.SubtrackGroup `json:"groups"`
}

// AssignmentsView is the response of GET /views/employees/{id}/assignments.
type AssignmentsView struct {
	EmployeeID string                      `json:"employee_id"`
	Query      string                      `json:"query"`
	Entries    []assignment.Entry          `json:"entries"`
	Assigned   []assignment.AssignedCourse `json:"assigned"`
	Grouping   hierarchy.Grouping          `json:"grouping"`
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request, c *lmsapi.Client) {
	tree, warnings, err := c.AssembleTree(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load tracks")
		return
	}
	if warnings == nil {
		warnings = []hierarchy.IntegrityWarning{}
	}
	writeJSON(w, http.StatusOK, TreeView{Tree: tree, Warnings: warnings, Courses: tree.CourseCount()})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request, c *lmsapi.Client) {
	courses, err := c.ListCourses(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load courses")
		return
	}
	q := r.URL.Query().Get("q")
	matches := hierarchy.FilterCourses(courses, q)
	writeJSON(w, http.StatusOK, CoursesView{
		Query:    q,
		Matches:  len(matches),
		Grouping: hierarchy.GroupByTrackThenSubtrack(matches),
	})
}

func (s *Server) handleSubtracks(w http.ResponseWriter, r *http.Request, c *lmsapi.Client) {
	tree, err := c.CompleteTree(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load subtracks")
		return
	}
	q := r.URL.Query().Get("q")
	groups := hierarchy.GroupSubtracksByTrack(hierarchy.FilterSubtracks(tree.Subtracks(), q))
	if groups == nil {
		groups = []hierarchy.SubtrackGroup{}
	}
	writeJSON(w, http.StatusOK, SubtracksView{Query: q, Groups: groups})
}

func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request, c *lmsapi.Client) {
	employeeID := r.PathValue("id")
	m := assignment.NewManager(c, s.events, "")
	if err := m.Load(r.Context(), employeeID); err != nil {
		writeError(w, err, "Failed to load courses")
		return
	}
	s.writeAssignments(w, r, m, employeeID)
}

func (s *Server) writeAssignments(w http.ResponseWriter, r *http.Request, m *assignment.Manager, employeeID string) {
	q := r.URL.Query().Get("q")
	o := m.Overlay().Filter(q)
	entries := o.Entries
	if entries == nil {
		entries = []assignment.Entry{}
	}
	assigned := m.Assigned()
	if assigned == nil {
		assigned = []assignment.AssignedCourse{}
	}
	writeJSON(w, http.StatusOK, AssignmentsView{
		EmployeeID: employeeID,
		Query:      q,
		Entries:    entries,
		Assigned:   assigned,
		Grouping:   hierarchy.GroupByTrackThenSubtrack(o.Courses()),
	})
}

// actorManager loads the employee's overlay in a manager that records the
// caller as the actor of audit events.
func (s *Server) actorManager(ctx context.Context, c *lmsapi.Client, employeeID string) (*assignment.Manager, error) {
	me, err := c.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("load caller: %w", err)
	}
	m := assignment.NewManager(c, s.events, me.EmployeeID)
	if err := m.Load(ctx, employeeID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request, c *lmsapi.Client) {
	employeeID, courseID := r.PathValue("id"), r.PathValue("courseID")
	m, err := s.actorManager(r.Context(), c, employeeID)
	if err != nil {
		writeError(w, err, "Failed to load courses")
		return
	}
	if err := m.StageDueDate(courseID, r.URL.Query().Get("due_date")); err != nil {
		writeError(w, err, "Invalid due date")
		return
	}
	if err := m.Assign(r.Context(), courseID); err != nil {
		writeActionError(w, err, "Failed to assign course", "Course assigned, but the updated assignments could not be loaded")
		return
	}
	s.writeAssignments(w, r, m, employeeID)
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request, c *lmsapi.Client) {
	employeeID, courseID := r.PathValue("id"), r.PathValue("courseID")
	confirmed := r.URL.Query().Get("confirm") == "true"
	if !confirmed {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: assignment.ConfirmPrompt})
		return
	}
	m, err := s.actorManager(r.Context(), c, employeeID)
	if err != nil {
		writeError(w, err, "Failed to load courses")
		return
	}
	if err := m.Unassign(r.Context(), courseID, func(string) bool { return confirmed }); err != nil {
		writeActionError(w, err, "Failed to unassign course", "Course removed, but the updated assignments could not be loaded")
		return
	}
	s.writeAssignments(w, r, m, employeeID)
}

// writeActionError reports a failed assign or unassign. When only the reload
// after a saved action failed, the body says the action went through.
func writeActionError(w http.ResponseWriter, err error, failed, saved string) {
	if errors.Is(err, assignment.ErrReload) {
		slog.Error("reload after assignment change", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Detail: saved})
		return
	}
	writeError(w, err, failed)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExportTree(w http.ResponseWriter, r *http.Request, c *lmsapi.Client) {
	tree, _, err := c.AssembleTree(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load tracks")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="tree.xlsx"`)
	if err := report.WriteTree(w, tree); err != nil {
		slog.Error("export tree", "error", err)
	}
}

func (s *Server) handleExportAssignments(w http.ResponseWriter, r *http.Request, c *lmsapi.Client) {
	employeeID := r.PathValue("id")
	m := assignment.NewManager(c, s.events, "")
	if err := m.Load(r.Context(), employeeID); err != nil {
		writeError(w, err, "Failed to load courses")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="assignments.xlsx"`)
	if err := report.WriteAssignments(w, employeeID, m.Overlay()); err != nil {
		slog.Error("export assignments", "employee_id", employeeID, "error", err)
	}
}
