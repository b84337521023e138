package report_test

import (
	"bytes"
	"slices"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-lms/internal/assignment"
	"github.com/p-n-ai/pai-lms/internal/hierarchy"
	"github.com/p-n-ai/pai-lms/internal/report"
)

func readRows(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", sheet, err)
	}
	return rows
}

func TestWriteTree(t *testing.T) {
	tree := hierarchy.Tree{
		{ID: "t1", Name: "Data", Subtracks: []hierarchy.SubTrackNode{
			{ID: "s1", Name: "ETL", Courses: []hierarchy.Course{{ID: "c1", Name: "Intro"}, {ID: "c2", Name: "Pipelines"}}},
			{ID: "s2", Name: "BI", Courses: []hierarchy.Course{}},
		}},
		{ID: "t2", Name: "Infra", Subtracks: []hierarchy.SubTrackNode{}},
	}

	var buf bytes.Buffer
	if err := report.WriteTree(&buf, tree); err != nil {
		t.Fatal(err)
	}
	rows := readRows(t, &buf, report.TreeSheet)

	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5 (header + 4)", len(rows))
	}
	if rows[0][0] != "Track ID" {
		t.Errorf("header = %v", rows[0])
	}
	if !slices.Equal(rows[2], []string{"t1", "Data", "s1", "ETL", "c2", "Pipelines"}) {
		t.Errorf("row 2 = %v", rows[2])
	}
	if !slices.Equal(rows[3], []string{"t1", "Data", "s2", "BI"}) {
		t.Errorf("empty subtrack row = %v", rows[3])
	}
	if !slices.Equal(rows[4], []string{"t2", "Infra"}) {
		t.Errorf("empty track row = %v", rows[4])
	}
}

func TestWriteAssignments(t *testing.T) {
	catalog := []hierarchy.CourseWithHierarchy{
		{ID: "c1", Name: "Intro", Subtracks: []hierarchy.Membership{
			{SubTrackID: "s1", SubTrackName: "ETL", TrackID: "t1", TrackName: "Data"},
			{SubTrackID: "s3", SubTrackName: "Warehousing", TrackID: "t1", TrackName: "Data"},
		}},
		{ID: "c2", Name: "Kubernetes", Subtracks: []hierarchy.Membership{}},
	}
	o := assignment.Compute(catalog, []assignment.AssignedCourse{{CourseID: "c1", DueDate: "2025-01-01"}}, nil)

	var buf bytes.Buffer
	if err := report.WriteAssignments(&buf, "emp-1", o); err != nil {
		t.Fatal(err)
	}
	rows := readRows(t, &buf, report.AssignmentsSheet)

	if rows[0][1] != "emp-1" {
		t.Errorf("meta row = %v", rows[0])
	}
	want := []string{"c1", "Intro", "Data", "ETL, Warehousing", "yes", "2025-01-01"}
	if !slices.Equal(rows[3], want) {
		t.Errorf("row = %v, want %v", rows[3], want)
	}
	if rows[4][4] != "no" {
		t.Errorf("unassigned row = %v", rows[4])
	}
}
