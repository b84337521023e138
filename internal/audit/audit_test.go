package audit_test

import (
	"testing"

	"github.com/p-n-ai/pai-lms/internal/audit"
)

func TestMemoryLogger_LogEvent(t *testing.T) {
	logger := audit.NewMemoryLogger()

	err := logger.LogEvent(audit.Event{
		Actor:     "admin-1",
		Action:    audit.ActionCourseAssigned,
		SubjectID: "emp-1",
		Data: map[string]any{
			"course_id": "c1",
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Action != audit.ActionCourseAssigned {
		t.Errorf("Action = %q, want %s", events[0].Action, audit.ActionCourseAssigned)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryLogger_RequiresAction(t *testing.T) {
	if err := audit.NewMemoryLogger().LogEvent(audit.Event{Actor: "a"}); err == nil {
		t.Fatal("expected error for missing action")
	}
}

func TestPostgresLogger_NilPool(t *testing.T) {
	logger := audit.NewPostgresLogger(nil)

	if err := logger.LogEvent(audit.Event{Action: audit.ActionLogin}); err == nil {
		t.Fatal("expected error for nil pool")
	}
	if err := logger.EnsureSchema(t.Context()); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestNopLogger(t *testing.T) {
	var l audit.Logger = audit.NopLogger{}
	if err := l.LogEvent(audit.Event{}); err != nil {
		t.Fatalf("NopLogger.LogEvent() error = %v", err)
	}
}
