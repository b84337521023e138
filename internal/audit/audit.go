// Package audit records the admin and employee actions the console performs
// against the LMS backend. It is an operational log, not a copy of LMS data.
package audit

import (
	"fmt"
	"sync"
	"time"
)

// Action names.
const (
	ActionCourseAssigned   = "course_assigned"
	ActionCourseUnassigned = "course_unassigned"
	ActionMCQSaved         = "mcq_saved"
	ActionMCQDeleted       = "mcq_deleted"
	ActionMCQImported      = "mcq_imported"
	ActionQuizSubmitted    = "quiz_submitted"
	ActionLogin            = "login"
	ActionLogout           = "logout"
)

// Event is one recorded action.
type Event struct {
	Actor     string
	Action    string
	SubjectID string
	Data      map[string]any
	CreatedAt time.Time
}

// Logger records events.
type Logger interface {
	LogEvent(event Event) error
}

// NopLogger ignores all events.
type NopLogger struct{}

func (NopLogger) LogEvent(Event) error {
	return nil
}

// MemoryLogger stores events in memory for tests and the CLI.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{
		events: []Event{},
	}
}

func (l *MemoryLogger) LogEvent(event Event) error {
	if event.Action == "" {
		return fmt.Errorf("action is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}
