package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/hierarchy"
)

var (
	// ErrBusy is returned when an action on the same course is in flight.
	ErrBusy = errors.New("assignment: action already in progress for this course")
	// ErrNotConfirmed is returned when an unassign is not confirmed.
	ErrNotConfirmed = errors.New("assignment: unassign not confirmed")
	// ErrNotLoaded is returned when an action runs before Load.
	ErrNotLoaded = errors.New("assignment: employee not loaded")
	// ErrReload is returned when an action was saved but the reload after it
	// failed. The overlay then still shows the state before the action.
	ErrReload = errors.New("assignment: saved but reload failed")
)

// ConfirmPrompt is the question shown before an unassign.
const ConfirmPrompt = "Are you sure you want to remove this course assignment?"

// Backend is the subset of the LMS API the manager needs.
type Backend interface {
	ListCourses(ctx context.Context) ([]hierarchy.CourseWithHierarchy, error)
	EmployeeCourses(ctx context.Context, employeeID string) ([]AssignedCourse, error)
	AssignCourse(ctx context.Context, employeeID, courseID, dueDate string) error
	UnassignCourse(ctx context.Context, employeeID, courseID string) error
}

// ConfirmFunc asks the user to confirm removing courseID.
type ConfirmFunc func(courseID string) bool

// Manager holds the assignment view of one employee. Every completed action
// reloads both lists from the backend.
type Manager struct {
	backend Backend
	events  audit.Logger
	actor   string
	staged  *DueDates

	mu         sync.Mutex
	employeeID string
	loaded     bool
	catalog    []hierarchy.CourseWithHierarchy
	assigned   []AssignedCourse
	inflight   map[string]bool
}

// NewManager creates a manager. actor names the admin in audit events.
func NewManager(backend Backend, events audit.Logger, actor string) *Manager {
	if events == nil {
		events = audit.NopLogger{}
	}
	return &Manager{
		backend:  backend,
		events:   events,
		actor:    actor,
		staged:   NewDueDates(),
		inflight: make(map[string]bool),
	}
}

// Load fetches the catalog and the employee's assigned courses concurrently
// and resets staged due dates.
func (m *Manager) Load(ctx context.Context, employeeID string) error {
	var catalog []hierarchy.CourseWithHierarchy
	var assigned []AssignedCourse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = m.backend.ListCourses(gctx)
		if err != nil {
			return fmt.Errorf("list courses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		assigned, err = m.backend.EmployeeCourses(gctx, employeeID)
		if err != nil {
			return fmt.Errorf("list assigned courses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	m.staged.Reset()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employeeID = employeeID
	m.loaded = true
	m.catalog = catalog
	m.assigned = assigned
	return nil
}

// Overlay returns the current overlay including staged due dates.
func (m *Manager) Overlay() Overlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Compute(m.catalog, m.assigned, m.staged.Snapshot())
}

// Assigned returns the employee's assigned courses as last loaded.
func (m *Manager) Assigned() []AssignedCourse {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AssignedCourse(nil), m.assigned...)
}

// StageDueDate records a due date to send with a later Assign.
func (m *Manager) StageDueDate(courseID, date string) error {
	return m.staged.Stage(courseID, date)
}

// Assign assigns courseID with its staged due date, if any, then reloads.
func (m *Manager) Assign(ctx context.Context, courseID string) error {
	employeeID, err := m.begin(courseID)
	if err != nil {
		return err
	}
	defer m.end(courseID)

	due, _ := m.staged.Get(courseID)
	if err := m.backend.AssignCourse(ctx, employeeID, courseID, due); err != nil {
		slog.Warn("assign course failed", "employee_id", employeeID, "course_id", courseID, "error", err)
		return fmt.Errorf("assign course: %w", err)
	}
	m.record(audit.ActionCourseAssigned, employeeID, courseID, due)
	if err := m.Load(ctx, employeeID); err != nil {
		return fmt.Errorf("reload after assign: %w: %w", ErrReload, err)
	}
	return nil
}

// Unassign removes courseID after confirm returns true, then reloads.
func (m *Manager) Unassign(ctx context.Context, courseID string, confirm ConfirmFunc) error {
	if confirm == nil || !confirm(courseID) {
		return ErrNotConfirmed
	}
	employeeID, err := m.begin(courseID)
	if err != nil {
		return err
	}
	defer m.end(courseID)

	if err := m.backend.UnassignCourse(ctx, employeeID, courseID); err != nil {
		slog.Warn("unassign course failed", "employee_id", employeeID, "course_id", courseID, "error", err)
		return fmt.Errorf("unassign course: %w", err)
	}
	m.record(audit.ActionCourseUnassigned, employeeID, courseID, "")
	if err := m.Load(ctx, employeeID); err != nil {
		return fmt.Errorf("reload after unassign: %w: %w", ErrReload, err)
	}
	return nil
}

// InFlight reports whether an action on courseID is running.
func (m *Manager) InFlight(courseID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inflight[courseID]
}

func (m *Manager) begin(courseID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return "", ErrNotLoaded
	}
	if m.inflight[courseID] {
		return "", ErrBusy
	}
	m.inflight[courseID] = true
	return m.employeeID, nil
}

func (m *Manager) end(courseID string) {
	m.mu.Lock()
	delete(m.inflight, courseID)
	m.mu.Unlock()
}

func (m *Manager) record(action, employeeID, courseID, due string) {
	data := map[string]any{"course_id": courseID}
	if due != "" {
		data["due_date"] = due
	}
	if err := m.events.LogEvent(audit.Event{
		Actor:     m.actor,
		Action:    action,
		SubjectID: employeeID,
		Data:      data,
	}); err != nil {
		slog.Warn("failed to log audit event", "action", action, "error", err)
	}
}
