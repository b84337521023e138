//go:build integration

package audit_test

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-lms/internal/audit"
)

func TestPostgresLogger_Integration(t *testing.T) {
	ctx := t.Context()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("lms"),
		postgres.WithUsername("lms"),
		postgres.WithPassword("lms"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	logger := audit.NewPostgresLogger(pool)
	if err := logger.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := logger.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() second run error = %v", err)
	}

	for _, e := range []audit.Event{
		{Actor: "admin-1", Action: audit.ActionCourseAssigned, SubjectID: "emp-1", Data: map[string]any{"course_id": "c1"}},
		{Actor: "admin-1", Action: audit.ActionCourseUnassigned, SubjectID: "emp-1", Data: map[string]any{"course_id": "c1"}},
	} {
		if err := logger.LogEvent(e); err != nil {
			t.Fatalf("LogEvent() error = %v", err)
		}
	}

	events, err := logger.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Action != audit.ActionCourseUnassigned {
		t.Errorf("newest action = %q, want %s", events[0].Action, audit.ActionCourseUnassigned)
	}
	if events[1].Data["course_id"] != "c1" {
		t.Errorf("data = %v", events[1].Data)
	}
}
