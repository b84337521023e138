package assignment

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/p-n-ai/pai-lms/internal/hierarchy"
)

// DateLayout is the due date format the backend accepts.
const DateLayout = "2006-01-02"

// ErrInvalidDueDate is returned when a staged date is not in DateLayout.
var ErrInvalidDueDate = errors.New("invalid due date")

// DueDates holds due dates staged for courses that are not assigned yet.
type DueDates struct {
	mu    sync.RWMutex
	dates map[string]string
}

func NewDueDates() *DueDates {
	return &DueDates{dates: make(map[string]string)}
}

// Stage sets the due date for courseID. An empty date clears it.
func (d *DueDates) Stage(courseID, date string) error {
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidDueDate, date)
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if date == "" {
		delete(d.dates, courseID)
		return nil
	}
	d.dates[courseID] = date
	return nil
}

// Get returns the staged date for courseID.
func (d *DueDates) Get(courseID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.dates[courseID]
	return v, ok
}

// Reset clears every staged date.
func (d *DueDates) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.dates)
}

// Snapshot returns a copy of the staged dates.
func (d *DueDates) Snapshot() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.dates)
}

// MergeDueDates returns the staged dates that apply: those of catalog
// courses that are not already assigned.
func MergeDueDates(catalog []hierarchy.CourseWithHierarchy, assigned []AssignedCourse, staged map[string]string) map[string]string {
	out := make(map[string]string)
	for _, c := range catalog {
		if IsAssigned(c.ID, assigned) {
			continue
		}
		if d, ok := staged[c.ID]; ok && d != "" {
			out[c.ID] = d
		}
	}
	return out
}
