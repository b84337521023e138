// Package assignment overlays one employee's assigned courses onto the full
// course catalog and manages assigning and unassigning courses.
package assignment

import (
	"slices"

	"github.com/p-n-ai/pai-lms/internal/hierarchy"
)

// AssignedCourse is a course assigned to an employee.
type AssignedCourse struct {
	CourseID     string `json:"course_id"`
	CourseName   string `json:"course_name"`
	SubtrackName string `json:"subtrack_name,omitempty"`
	TrackName    string `json:"track_name,omitempty"`
	DueDate      string `json:"due_date,omitempty"`
}

// IsAssigned reports whether courseID is in assigned.
func IsAssigned(courseID string, assigned []AssignedCourse) bool {
	return slices.ContainsFunc(assigned, func(a AssignedCourse) bool { return a.CourseID == courseID })
}

// Entry is one catalog course with its assignment status for the employee.
type Entry struct {
	Course   hierarchy.CourseWithHierarchy `json:"course"`
	Assigned bool                          `json:"assigned"`
	DueDate  string                        `json:"due_date,omitempty"`
	// Staged is true when DueDate is a staged value for an unassigned course.
	Staged bool `json:"staged,omitempty"`
}

// Overlay is the catalog annotated with one employee's assignments.
type Overlay struct {
	Entries []Entry `json:"entries"`
	index   map[string]int
}

// Compute builds the overlay. Assigned courses take their due date from the
// assigned list; unassigned ones take the staged date, if any. Inputs are not
// modified.
func Compute(catalog []hierarchy.CourseWithHierarchy, assigned []AssignedCourse, staged map[string]string) Overlay {
	due := make(map[string]string, len(assigned))
	for _, a := range assigned {
		if _, ok := due[a.CourseID]; !ok {
			due[a.CourseID] = a.DueDate
		}
	}

	o := Overlay{Entries: make([]Entry, 0, len(catalog)), index: make(map[string]int, len(catalog))}
	for _, c := range catalog {
		if _, dup := o.index[c.ID]; dup {
			continue
		}
		e := Entry{Course: c}
		if d, ok := due[c.ID]; ok {
			e.Assigned = true
			e.DueDate = d
		} else if d, ok := staged[c.ID]; ok && d != "" {
			e.DueDate = d
			e.Staged = true
		}
		o.index[c.ID] = len(o.Entries)
		o.Entries = append(o.Entries, e)
	}
	return o
}

// Lookup returns the entry for courseID.
func (o Overlay) Lookup(courseID string) (Entry, bool) {
	i, ok := o.index[courseID]
	if !ok {
		return Entry{}, false
	}
	return o.Entries[i], true
}

// IsAssigned reports whether courseID is assigned in the overlay.
func (o Overlay) IsAssigned(courseID string) bool {
	e, ok := o.Lookup(courseID)
	return ok && e.Assigned
}

// Assigned returns the assigned entries in catalog order.
func (o Overlay) Assigned() []Entry {
	out := []Entry{}
	for _, e := range o.Entries {
		if e.Assigned {
			out = append(out, e)
		}
	}
	return out
}

// Courses returns the catalog courses in overlay order.
func (o Overlay) Courses() []hierarchy.CourseWithHierarchy {
	out := make([]hierarchy.CourseWithHierarchy, len(o.Entries))
	for i, e := range o.Entries {
		out[i] = e.Course
	}
	return out
}

// Filter keeps the entries whose course matches query.
func (o Overlay) Filter(query string) Overlay {
	kept := hierarchy.FilterCourses(o.Courses(), query)
	out := Overlay{Entries: make([]Entry, 0, len(kept)), index: make(map[string]int, len(kept))}
	for _, c := range kept {
		e, _ := o.Lookup(c.ID)
		out.index[c.ID] = len(out.Entries)
		out.Entries = append(out.Entries, e)
	}
	return out
}
