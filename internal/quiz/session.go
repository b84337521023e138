package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/p-n-ai/pai-lms/internal/mcq"
)

// State is the lifecycle position of a quiz Session.
type State int

const (
	StateLoading State = iota
	StateInProgress
	StateSubmitting
	StateResult
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateResult:
		return "result"
	default:
		return "unknown"
	}
}

type userError string

func (e userError) Error() string       { return string(e) }
func (e userError) UserMessage() string { return string(e) }

// ErrIncomplete blocks a submission that leaves any question unanswered.
var ErrIncomplete error = userError("Please answer all questions before submitting.")

var (
	ErrNotInProgress   = errors.New("quiz is not in progress")
	ErrUnknownQuestion = errors.New("unknown question")
)

// Source loads and grades quizzes.
type Source interface {
	QuizQuestions(ctx context.Context, courseID string) ([]Question, error)
	SubmitQuiz(ctx context.Context, courseID string, s Submission) (Result, error)
}

// NavItem describes one position in the question navigator.
type NavItem struct {
	Index      int
	QuestionID string
	Answered   bool
	Current    bool
}

// Session is one employee's attempt at a course quiz.
type Session struct {
	courseID  string
	src       Source
	questions []Question
	answers   map[string]Answer
	cursor    int
	state     State
	result    *Result
	lastErr   error
	mu        sync.Mutex
}

// NewSession creates a session in the loading state. Call Load to fetch
// the questions.
func NewSession(courseID string, src Source) *Session {
	return &Session{courseID: courseID, src: src, answers: make(map[string]Answer)}
}

// Load fetches the questions. Zero questions is a valid, empty quiz.
func (s *Session) Load(ctx context.Context) error {
	qs, err := s.src.QuizQuestions(ctx, s.courseID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return fmt.Errorf("load quiz: %w", err)
	}
	if qs == nil {
		qs = []Question{}
	}
	s.questions = qs
	s.answers = make(map[string]Answer)
	s.cursor = 0
	s.result = nil
	s.lastErr = nil
	s.state = StateInProgress
	return nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error from the last failed load or submit.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Questions returns the loaded questions.
func (s *Session) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Question(nil), s.questions...)
}

// Choose records a selection for a question. Single-answer questions take
// o as the answer; multiple-answer questions toggle o.
func (s *Session) Choose(questionID string, o mcq.Option) error {
	o, err := mcq.ParseOption(string(o))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	q, ok := s.question(questionID)
	if !ok {
		return fmt.Errorf("choose %q: %w", questionID, ErrUnknownQuestion)
	}
	if !q.MultipleAnswer {
		s.answers[questionID] = Single(o)
		return nil
	}
	cur, ok := s.answers[questionID]
	if !ok {
		cur = Multiple()
	}
	s.answers[questionID] = cur.Toggle(o)
	return nil
}

// Answer returns the current answer for a question.
func (s *Session) Answer(questionID string) (Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	if !ok || a.Empty() {
		return Answer{}, false
	}
	return a, true
}

// Answered returns how many questions have a non-empty answer.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answered()
}

func (s *Session) answered() int {
	n := 0
	for _, q := range s.questions {
		if a, ok := s.answers[q.ID]; ok && !a.Empty() {
			n++
		}
	}
	return n
}

func (s *Session) question(id string) (Question, bool) {
	for _, q := range s.questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Cursor returns the index of the current question.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Current returns the question under the cursor.
func (s *Session) Current() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < 0 || s.cursor >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.cursor], true
}

// Next moves to the following question and reports whether it moved.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor+1 >= len(s.questions) {
		return false
	}
	s.cursor++
	return true
}

// Prev moves to the previous question and reports whether it moved.
func (s *Session) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	return true
}

// Jump moves the cursor to index i.
func (s *Session) Jump(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.questions) {
		return fmt.Errorf("jump to question %d: out of range [0, %d)", i, len(s.questions))
	}
	s.cursor = i
	return nil
}

// Navigator returns the per-question answered/current flags.
func (s *Session) Navigator() []NavItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]NavItem, len(s.questions))
	for i, q := range s.questions {
		a, ok := s.answers[q.ID]
		items[i] = NavItem{
			Index:      i,
			QuestionID: q.ID,
			Answered:   ok && !a.Empty(),
			Current:    i == s.cursor,
		}
	}
	return items
}

// Submit sends the answers for grading. It returns ErrIncomplete without
// calling the backend unless every question is answered.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return Result{}, ErrNotInProgress
	}
	if len(s.questions) == 0 || s.answered() != len(s.questions) {
		s.mu.Unlock()
		return Result{}, ErrIncomplete
	}
	sub := Submission{Answers: make([]AnswerEntry, 0, len(s.questions))}
	for _, q := range s.questions {
		sub.Answers = append(sub.Answers, AnswerEntry{QuestionID: q.ID, SelectedAnswer: s.answers[q.ID]})
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	res, err := s.src.SubmitQuiz(ctx, s.courseID, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateInProgress
		s.lastErr = err
		slog.Warn("quiz submit failed", "course_id", s.courseID, "error", err)
		return Result{}, fmt.Errorf("submit quiz: %w", err)
	}
	s.state = StateResult
	s.result = &res
	s.lastErr = nil
	return res, nil
}

// Result returns the graded result once the quiz is submitted.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Retry discards answers and result and reloads the questions.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return errors.New("retry quiz: submit in progress")
	}
	s.answers = make(map[string]Answer)
	s.cursor = 0
	s.result = nil
	s.state = StateLoading
	s.mu.Unlock()
	return s.Load(ctx)
}
