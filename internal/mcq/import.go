package mcq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ImportEntry is one question in a bulk import file.
//
//	- course_id: etl-101
//	  question: Which tool schedules DAGs?
//	  options: [Airflow, Excel, Paint, Notepad]
//	  correct: [A]
//	  multiple: false
type ImportEntry struct {
	CourseID string   `yaml:"course_id"`
	ID       string   `yaml:"id"`
	Text     string   `yaml:"question"`
	Options  []string `yaml:"options"`
	Correct  []string `yaml:"correct"`
	Multiple bool     `yaml:"multiple"`
}

// EntryError reports why one import entry was rejected.
type EntryError struct {
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.Index+1, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// ImportReport summarises a bulk import.
type ImportReport struct {
	Created []Question
	Failed  []EntryError
}

// Question converts the entry to a Question. Options beyond the fourth are
// rejected rather than silently dropped.
func (e ImportEntry) Question() (Question, error) {
	if len(e.Options) > len(Options) {
		return Question{}, fmt.Errorf("expected %d options, got %d", len(Options), len(e.Options))
	}
	q := Question{ID: e.ID, Text: e.Text, MultipleAnswer: e.Multiple, CorrectAnswers: []Option{}}
	for i, text := range e.Options {
		q.SetOptionText(Options[i], text)
	}
	for _, c := range e.Correct {
		o, err := ParseOption(c)
		if err != nil {
			return Question{}, err
		}
		if !q.IsCorrect(o) {
			q.CorrectAnswers = append(q.CorrectAnswers, o)
		}
	}
	return q, nil
}

// ParseImport decodes a YAML list of entries.
func ParseImport(data []byte) ([]ImportEntry, error) {
	var entries []ImportEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse mcq import: %w", err)
	}
	return entries, nil
}

// ImportFile reads path and creates every question through s. When
// defaultCourse is set it fills entries without a course_id. Every entry is
// checked against the guards before the first create call; if any entry
// fails, nothing is created and the returned error lists the failures.
func ImportFile(ctx context.Context, path, defaultCourse string, s Saver) (ImportReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportReport{}, fmt.Errorf("read mcq import: %w", err)
	}
	entries, err := ParseImport(data)
	if err != nil {
		return ImportReport{}, err
	}
	return Import(ctx, entries, defaultCourse, s)
}

// Import validates and creates entries. See ImportFile.
func Import(ctx context.Context, entries []ImportEntry, defaultCourse string, s Saver) (ImportReport, error) {
	var report ImportReport
	questions := make([]Question, len(entries))
	courses := make([]string, len(entries))

	for i, e := range entries {
		course := e.CourseID
		if course == "" {
			course = defaultCourse
		}
		if course == "" {
			report.Failed = append(report.Failed, EntryError{Index: i, Err: errors.New("course_id is required")})
			continue
		}
		q, err := e.Question()
		if err == nil {
			err = Validate(q)
		}
		if err != nil {
			report.Failed = append(report.Failed, EntryError{Index: i, Err: err})
			continue
		}
		questions[i], courses[i] = q, course
	}
	if len(report.Failed) > 0 {
		return report, fmt.Errorf("import mcqs: %d of %d entries invalid", len(report.Failed), len(entries))
	}

	for i, q := range questions {
		saved, err := s.CreateMCQ(ctx, courses[i], q)
		if err != nil {
			report.Failed = append(report.Failed, EntryError{Index: i, Err: err})
			slog.Warn("mcq import entry rejected", "course_id", courses[i], "index", i, "error", err)
			continue
		}
		report.Created = append(report.Created, saved)
	}
	slog.Info("mcq import finished", "created", len(report.Created), "failed", len(report.Failed))
	if len(report.Failed) > 0 {
		return report, fmt.Errorf("import mcqs: %d of %d entries rejected", len(report.Failed), len(entries))
	}
	return report, nil
}
