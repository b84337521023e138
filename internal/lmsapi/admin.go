package lmsapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-lms/internal/assignment"
	"github.com/p-n-ai/pai-lms/internal/hierarchy"
	"github.com/p-n-ai/pai-lms/internal/mcq"
)

// Tracks lists every track.
func (c *Client) Tracks(ctx context.Context) ([]hierarchy.Track, error) {
	out := []hierarchy.Track{}
	if err := c.get(ctx, "/api/admin/tracks", &out); err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return out, nil
}

// TracksTree lists tracks with their subtracks.
func (c *Client) TracksTree(ctx context.Context) ([]hierarchy.TrackWithSubtracks, error) {
	out := []hierarchy.TrackWithSubtracks{}
	if err := c.get(ctx, "/api/admin/tracks-tree", &out); err != nil {
		return nil, fmt.Errorf("list tracks tree: %w", err)
	}
	return out, nil
}

// CompleteTree returns the pre-nested track, subtrack and course tree.
func (c *Client) CompleteTree(ctx context.Context) (hierarchy.Tree, error) {
	var nested []hierarchy.TrackNode
	if err := c.get(ctx, "/api/admin/complete-tree", &nested); err != nil {
		return nil, fmt.Errorf("get complete tree: %w", err)
	}
	return hierarchy.FromNested(nested), nil
}

// AssembleTree fetches tracks, subtracks and courses concurrently and builds
// the tree on the client. Integrity warnings are logged and returned.
func (c *Client) AssembleTree(ctx context.Context) (hierarchy.Tree, []hierarchy.IntegrityWarning, error) {
	var (
		tracks    []hierarchy.Track
		subtracks []hierarchy.SubTrack
		courses   []hierarchy.CourseWithHierarchy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tracks, err = c.Tracks(gctx)
		return err
	})
	g.Go(func() (err error) {
		subtracks, err = c.Subtracks(gctx)
		return err
	})
	g.Go(func() (err error) {
		courses, err = c.ListCourses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	tree, warnings := hierarchy.BuildTree(tracks, subtracks, courses)
	for _, w := range warnings {
		slog.Warn("hierarchy integrity", "kind", w.Kind, "id", w.ID, "ref", w.Ref)
	}
	return tree, warnings, nil
}

// CreateTrack creates a track.
func (c *Client) CreateTrack(ctx context.Context, t hierarchy.Track) (hierarchy.Track, error) {
	if err := c.check(t); err != nil {
		return hierarchy.Track{}, err
	}
	var out hierarchy.Track
	if err := c.post(ctx, "/api/admin/tracks", t, &out); err != nil {
		return hierarchy.Track{}, fmt.Errorf("create track: %w", err)
	}
	return out, nil
}

// UpdateTrack renames a track.
func (c *Client) UpdateTrack(ctx context.Context, t hierarchy.Track) (hierarchy.Track, error) {
	if err := c.check(t); err != nil {
		return hierarchy.Track{}, err
	}
	var out hierarchy.Track
	body := map[string]string{"track_name": t.Name}
	if err := c.put(ctx, pathf("/api/admin/tracks/%s", t.ID), body, &out); err != nil {
		return hierarchy.Track{}, fmt.Errorf("update track: %w", err)
	}
	return out, nil
}

// Subtracks lists every subtrack.
func (c *Client) Subtracks(ctx context.Context) ([]hierarchy.SubTrack, error) {
	out := []hierarchy.SubTrack{}
	if err := c.get(ctx, "/api/admin/subtracks", &out); err != nil {
		return nil, fmt.Errorf("list subtracks: %w", err)
	}
	return out, nil
}

// CreateSubtrack creates a subtrack under its track.
func (c *Client) CreateSubtrack(ctx context.Context, s hierarchy.SubTrack) (hierarchy.SubTrack, error) {
	if err := c.check(s); err != nil {
		return hierarchy.SubTrack{}, err
	}
	var out hierarchy.SubTrack
	if err := c.post(ctx, "/api/admin/subtracks", s, &out); err != nil {
		return hierarchy.SubTrack{}, fmt.Errorf("create subtrack: %w", err)
	}
	return out, nil
}

// UpdateSubtrack renames or moves a subtrack.
func (c *Client) UpdateSubtrack(ctx context.Context, s hierarchy.SubTrack) (hierarchy.SubTrack, error) {
	if err := c.check(s); err != nil {
		return hierarchy.SubTrack{}, err
	}
	var out hierarchy.SubTrack
	body := map[string]string{"subtrack_name": s.Name, "track_id": s.TrackID}
	if err := c.put(ctx, pathf("/api/admin/subtracks/%s", s.ID), body, &out); err != nil {
		return hierarchy.SubTrack{}, fmt.Errorf("update subtrack: %w", err)
	}
	return out, nil
}

// ListCourses lists every course with its subtrack memberships.
func (c *Client) ListCourses(ctx context.Context) ([]hierarchy.CourseWithHierarchy, error) {
	out := []hierarchy.CourseWithHierarchy{}
	if err := c.get(ctx, "/api/admin/courses", &out); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	for i := range out {
		if out[i].Subtracks == nil {
			out[i].Subtracks = []hierarchy.Membership{}
		}
	}
	return out, nil
}

// CreateCourse creates a course under a track, subtrack or course.
func (c *Client) CreateCourse(ctx context.Context, nc hierarchy.NewCourse) (hierarchy.Course, error) {
	if err := c.check(nc); err != nil {
		return hierarchy.Course{}, err
	}
	var out hierarchy.Course
	if err := c.post(ctx, "/api/admin/courses", nc, &out); err != nil {
		return hierarchy.Course{}, fmt.Errorf("create course: %w", err)
	}
	return out, nil
}

// UpdateCourse renames a course.
func (c *Client) UpdateCourse(ctx context.Context, courseID, name string) (hierarchy.Course, error) {
	var out hierarchy.Course
	body := map[string]string{"course_name": name}
	if err := c.put(ctx, pathf("/api/admin/courses/%s", courseID), body, &out); err != nil {
		return hierarchy.Course{}, fmt.Errorf("update course: %w", err)
	}
	return out, nil
}

// AddCourseToSubtrack adds a membership of courseID in subtrackID.
func (c *Client) AddCourseToSubtrack(ctx context.Context, courseID, subtrackID string) error {
	if err := c.post(ctx, pathf("/api/admin/courses/%s/subtracks/%s", courseID, subtrackID), nil, nil); err != nil {
		return fmt.Errorf("add course to subtrack: %w", err)
	}
	return nil
}

// CourseLinks lists the study links of a course.
func (c *Client) CourseLinks(ctx context.Context, courseID string) ([]StudyLink, error) {
	out := []StudyLink{}
	if err := c.get(ctx, pathf("/api/admin/courses/%s/links", courseID), &out); err != nil {
		return nil, fmt.Errorf("list course links: %w", err)
	}
	return out, nil
}

// AddStudyLink attaches a link to a course. A missing link id is generated.
func (c *Client) AddStudyLink(ctx context.Context, l NewStudyLink) (StudyLink, error) {
	if l.LinkID == "" {
		l.LinkID = uuid.NewString()
	}
	if err := c.check(l); err != nil {
		return StudyLink{}, err
	}
	var out StudyLink
	if err := c.post(ctx, "/api/admin/add-link", l, &out); err != nil {
		return StudyLink{}, fmt.Errorf("add study link: %w", err)
	}
	if out.CourseID == "" {
		out.CourseID = l.CourseID
	}
	return out, nil
}

// DeleteStudyLink removes a link.
func (c *Client) DeleteStudyLink(ctx context.Context, linkID string) error {
	if err := c.delete(ctx, pathf("/api/admin/links/%s", linkID)); err != nil {
		return fmt.Errorf("delete study link: %w", err)
	}
	return nil
}

// Employees lists every employee.
func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	out := []Employee{}
	if err := c.get(ctx, "/api/admin/employees", &out); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

// CreateEmployee creates an employee account.
func (c *Client) CreateEmployee(ctx context.Context, e NewEmployee) (Employee, error) {
	if e.Role == "" {
		e.Role = RoleEmployee
	}
	if err := c.check(e); err != nil {
		return Employee{}, err
	}
	var out Employee
	if err := c.post(ctx, "/api/admin/employees", e, &out); err != nil {
		return Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return out, nil
}

// EmployeeCourses lists the courses assigned to an employee.
func (c *Client) EmployeeCourses(ctx context.Context, employeeID string) ([]assignment.AssignedCourse, error) {
	out := []assignment.AssignedCourse{}
	if err := c.get(ctx, pathf("/api/admin/employees/%s/courses", employeeID), &out); err != nil {
		return nil, fmt.Errorf("list employee courses: %w", err)
	}
	return out, nil
}

type assignRequest struct {
	DueDate string `json:"due_date,omitempty"`
}

// AssignCourse assigns a course to an employee with an optional due date.
func (c *Client) AssignCourse(ctx context.Context, employeeID, courseID, dueDate string) error {
	path := pathf("/api/admin/employees/%s/courses/%s", employeeID, courseID)
	if err := c.post(ctx, path, assignRequest{DueDate: dueDate}, nil); err != nil {
		return fmt.Errorf("assign course: %w", err)
	}
	return nil
}

// UnassignCourse removes a course assignment.
func (c *Client) UnassignCourse(ctx context.Context, employeeID, courseID string) error {
	if err := c.delete(ctx, pathf("/api/admin/employees/%s/courses/%s", employeeID, courseID)); err != nil {
		return fmt.Errorf("unassign course: %w", err)
	}
	return nil
}

// CourseMCQs lists the questions of a course with their answers.
func (c *Client) CourseMCQs(ctx context.Context, courseID string) ([]mcq.Question, error) {
	out := []mcq.Question{}
	if err := c.get(ctx, pathf("/api/admin/courses/%s/mcqs", courseID), &out); err != nil {
		return nil, fmt.Errorf("list mcqs: %w", err)
	}
	return out, nil
}

// CreateMCQ adds a question to a course. A missing question id is
// generated. The question must pass the MCQ guards.
func (c *Client) CreateMCQ(ctx context.Context, courseID string, q mcq.Question) (mcq.Question, error) {
	if err := mcq.Validate(q); err != nil {
		return mcq.Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	var out mcq.Question
	if err := c.post(ctx, pathf("/api/admin/courses/%s/mcqs", courseID), q, &out); err != nil {
		return mcq.Question{}, fmt.Errorf("create mcq: %w", err)
	}
	if out.ID == "" {
		out = q
	}
	return out, nil
}

// UpdateMCQ replaces a question. The question must pass the MCQ guards.
func (c *Client) UpdateMCQ(ctx context.Context, courseID string, q mcq.Question) (mcq.Question, error) {
	if err := mcq.Validate(q); err != nil {
		return mcq.Question{}, err
	}
	if q.ID == "" {
		return mcq.Question{}, fmt.Errorf("update mcq: question_id is required")
	}
	var out mcq.Question
	if err := c.put(ctx, pathf("/api/admin/courses/%s/mcqs/%s", courseID, q.ID), q, &out); err != nil {
		return mcq.Question{}, fmt.Errorf("update mcq: %w", err)
	}
	if out.ID == "" {
		out = q
	}
	return out, nil
}

// DeleteMCQ removes a question from a course.
func (c *Client) DeleteMCQ(ctx context.Context, courseID, questionID string) error {
	if err := c.delete(ctx, pathf("/api/admin/courses/%s/mcqs/%s", courseID, questionID)); err != nil {
		return fmt.Errorf("delete mcq: %w", err)
	}
	return nil
}
