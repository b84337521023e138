// Package report exports the course tree and assignment overlays as xlsx
// workbooks.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-lms/internal/assignment"
	"github.com/p-n-ai/pai-lms/internal/hierarchy"
)

const (
	TreeSheet        = "Tree"
	AssignmentsSheet = "Assignments"
)

var (
	treeHeader       = []any{"Track ID", "Track", "Subtrack ID", "Subtrack", "Course ID", "Course"}
	assignmentHeader = []any{"Course ID", "Course", "Tracks", "Subtracks", "Assigned", "Due date"}
)

// WriteTree writes one row per (track, subtrack, course). Tracks and
// subtracks without children still get a row so the sheet mirrors the tree.
func WriteTree(w io.Writer, tree hierarchy.Tree) error {
	rows := [][]any{}
	for _, t := range tree {
		if len(t.Subtracks) == 0 {
			rows = append(rows, []any{t.ID, t.Name, "", "", "", ""})
			continue
		}
		for _, st := range t.Subtracks {
			if len(st.Courses) == 0 {
				rows = append(rows, []any{t.ID, t.Name, st.ID, st.Name, "", ""})
				continue
			}
			for _, c := range st.Courses {
				rows = append(rows, []any{t.ID, t.Name, st.ID, st.Name, c.ID, c.Name})
			}
		}
	}
	return write(w, TreeSheet, treeHeader, rows)
}

// WriteAssignments writes the overlay for one employee, one row per catalog
// course.
func WriteAssignments(w io.Writer, employeeID string, o assignment.Overlay) error {
	rows := make([][]any, 0, len(o.Entries))
	for _, e := range o.Entries {
		tracks, subtracks := memberships(e.Course.Subtracks)
		assigned := "no"
		if e.Assigned {
			assigned = "yes"
		}
		rows = append(rows, []any{e.Course.ID, e.Course.Name, tracks, subtracks, assigned, e.DueDate})
	}
	return write(w, AssignmentsSheet, assignmentHeader, rows, "Employee", employeeID)
}

func memberships(ms []hierarchy.Membership) (string, string) {
	var tracks, subtracks []string
	seen := map[string]bool{}
	for _, m := range ms {
		if !seen[m.TrackName] {
			seen[m.TrackName] = true
			tracks = append(tracks, m.TrackName)
		}
		subtracks = append(subtracks, m.SubTrackName)
	}
	return strings.Join(tracks, ", "), strings.Join(subtracks, ", ")
}

// write builds a single-sheet workbook. meta, when given, is a label/value
// pair placed above the header.
func write(w io.Writer, sheet string, header []any, rows [][]any, meta ...string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	row := 1
	if len(meta) == 2 {
		if err := f.SetSheetRow(sheet, "A1", &[]any{meta[0], meta[1]}); err != nil {
			return fmt.Errorf("write meta row: %w", err)
		}
		row = 3
	}

	headerCell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, headerCell, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, headerCell, lastHeader, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, row+1+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
