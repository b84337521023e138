package mcq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ErrBusy is returned when a save is already in flight.
var ErrBusy = errors.New("mcq form: save already in progress")

// State is the lifecycle position of a Form.
type State int

const (
	StateEmpty State = iota
	StateEditing
	StateValid
	StateSubmitting
	StateSaved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateValid:
		return "valid"
	case StateSubmitting:
		return "submitting"
	case StateSaved:
		return "saved"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Saver persists questions for a course.
type Saver interface {
	CreateMCQ(ctx context.Context, courseID string, q Question) (Question, error)
	UpdateMCQ(ctx context.Context, courseID string, q Question) (Question, error)
}

// Form is one in-progress question editor for a course.
type Form struct {
	courseID string
	editing  bool
	q        Question
	state    State
	lastErr  error
	mu       sync.Mutex
}

// NewForm starts an empty form that creates a new question on submit.
func NewForm(courseID string) *Form {
	return &Form{courseID: courseID, state: StateEmpty}
}

// EditForm starts a form over an existing question that updates it on submit.
func EditForm(courseID string, q Question) *Form {
	f := &Form{courseID: courseID, editing: true, q: q.clone()}
	f.refresh()
	return f
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Question returns a copy of the question being edited.
func (f *Form) Question() Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.q.clone()
}

// LastError returns the error from the last rejected submit.
func (f *Form) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// SetText sets the question text.
func (f *Form) SetText(text string) error {
	return f.edit(func(q *Question) { q.Text = text })
}

// SetOption sets the text of one answer slot.
func (f *Form) SetOption(o Option, text string) error {
	o, err := ParseOption(string(o))
	if err != nil {
		return err
	}
	return f.edit(func(q *Question) { q.SetOptionText(o, text) })
}

// SetMultiple switches between single and multiple answer mode. Switching
// clears the selected correct answers.
func (f *Form) SetMultiple(multiple bool) error {
	return f.edit(func(q *Question) {
		q.MultipleAnswer = multiple
		q.CorrectAnswers = []Option{}
	})
}

// Select marks o as correct. In single mode it replaces the selection; in
// multiple mode it toggles o.
func (f *Form) Select(o Option) error {
	o, err := ParseOption(string(o))
	if err != nil {
		return err
	}
	return f.edit(func(q *Question) {
		if !q.MultipleAnswer {
			q.CorrectAnswers = []Option{o}
			return
		}
		if i := slices.Index(q.CorrectAnswers, o); i >= 0 {
			q.CorrectAnswers = slices.Delete(q.CorrectAnswers, i, i+1)
			return
		}
		q.CorrectAnswers = append(q.CorrectAnswers, o)
	})
}

func (f *Form) edit(apply func(q *Question)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return ErrBusy
	}
	apply(&f.q)
	f.refresh()
	return nil
}

// refresh recomputes Editing/Valid from the guards. Callers hold mu.
func (f *Form) refresh() {
	if Validate(f.q) == nil {
		f.state = StateValid
		return
	}
	f.state = StateEditing
}

// Submit validates the form and saves it through s. Guard failures return a
// *GuardError without calling s. A rejected save leaves the form editable
// and returns the backend error.
func (f *Form) Submit(ctx context.Context, s Saver) (Question, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return Question{}, ErrBusy
	}
	if err := Validate(f.q); err != nil {
		f.state = StateEditing
		f.mu.Unlock()
		return Question{}, err
	}
	q := f.q.clone()
	editing := f.editing
	f.state = StateSubmitting
	f.mu.Unlock()

	var saved Question
	var err error
	if editing {
		saved, err = s.UpdateMCQ(ctx, f.courseID, q)
	} else {
		saved, err = s.CreateMCQ(ctx, f.courseID, q)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateRejected
		f.lastErr = err
		slog.Warn("mcq save rejected", "course_id", f.courseID, "question_id", q.ID, "error", err)
		return Question{}, fmt.Errorf("save mcq: %w", err)
	}
	f.state = StateSaved
	f.lastErr = nil
	f.q = saved.clone()
	f.editing = true
	return saved, nil
}

// Reset clears the form back to an empty create form.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.q = Question{}
	f.editing = false
	f.lastErr = nil
	f.state = StateEmpty
}
