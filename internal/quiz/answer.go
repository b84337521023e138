// Package quiz holds the employee quiz session: the loaded questions, the
// chosen answers, navigation between questions and the graded result.
package quiz

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-lms/internal/mcq"
)

// Question is a quiz question as an employee sees it, without answers.
type Question struct {
	ID             string `json:"question_id"`
	Text           string `json:"question_text"`
	OptionA        string `json:"option_a"`
	OptionB        string `json:"option_b"`
	OptionC        string `json:"option_c"`
	OptionD        string `json:"option_d"`
	MultipleAnswer bool   `json:"multiple_answer_flag"`
}

// OptionText returns the text of slot o.
func (q Question) OptionText(o mcq.Option) string {
	return mcq.Question{OptionA: q.OptionA, OptionB: q.OptionB, OptionC: q.OptionC, OptionD: q.OptionD}.OptionText(o)
}

// Answer is either a single option or a set of options. The zero value is
// an empty single answer.
type Answer struct {
	multiple bool
	options  []mcq.Option
}

// Single is a radio answer.
func Single(o mcq.Option) Answer {
	return Answer{options: []mcq.Option{o}}
}

// Multiple is a checkbox answer. Duplicates are dropped and options are
// kept in A..D order.
func Multiple(opts ...mcq.Option) Answer {
	a := Answer{multiple: true}
	for _, o := range mcq.Options {
		if slices.Contains(opts, o) {
			a.options = append(a.options, o)
		}
	}
	return a
}

// IsMultiple reports whether a is a set answer.
func (a Answer) IsMultiple() bool { return a.multiple }

// Options returns the selected options.
func (a Answer) Options() []mcq.Option { return slices.Clone(a.options) }

// Empty reports whether nothing is selected.
func (a Answer) Empty() bool { return len(a.options) == 0 }

// Has reports whether o is selected.
func (a Answer) Has(o mcq.Option) bool { return slices.Contains(a.options, o) }

// Toggle returns a copy of a multiple answer with o added or removed.
func (a Answer) Toggle(o mcq.Option) Answer {
	if a.Has(o) {
		return Multiple(slices.DeleteFunc(a.Options(), func(x mcq.Option) bool { return x == o })...)
	}
	return Multiple(append(a.Options(), o)...)
}

// MarshalJSON encodes a single answer as a string and a multiple answer as
// an array.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.multiple {
		opts := a.options
		if opts == nil {
			opts = []mcq.Option{}
		}
		return json.Marshal(opts)
	}
	if len(a.options) == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(a.options[0])
}

// UnmarshalJSON accepts either encoding produced by MarshalJSON.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*a = Answer{}
			return nil
		}
		o, err := mcq.ParseOption(one)
		if err != nil {
			return err
		}
		*a = Single(o)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("decode answer: %w", err)
	}
	opts := make([]mcq.Option, 0, len(many))
	for _, s := range many {
		o, err := mcq.ParseOption(s)
		if err != nil {
			return err
		}
		opts = append(opts, o)
	}
	*a = Multiple(opts...)
	return nil
}

// AnswerEntry is one answered question in a submission.
type AnswerEntry struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer Answer `json:"selected_answer"`
}

// Submission is the payload sent when a quiz is submitted.
type Submission struct {
	Answers []AnswerEntry `json:"answers"`
}

// Result is the graded outcome of one attempt.
type Result struct {
	Score          float64 `json:"score"`
	Passed         bool    `json:"passed"`
	AttemptNumber  int     `json:"attempt_number,omitempty"`
	CorrectAnswers int     `json:"correct_answers,omitempty"`
	TotalQuestions int     `json:"total_questions,omitempty"`
	PassingScore   float64 `json:"passing_score,omitempty"`
}

// UnmarshalJSON accepts decimal fields encoded either as numbers or as
// strings such as "85.00".
func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	var aux struct {
		plain
		Score        json.RawMessage `json:"score"`
		PassingScore json.RawMessage `json:"passing_score"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	score, err := decimal(aux.Score)
	if err != nil {
		return fmt.Errorf("decode score: %w", err)
	}
	passing, err := decimal(aux.PassingScore)
	if err != nil {
		return fmt.Errorf("decode passing_score: %w", err)
	}
	*r = Result(aux.plain)
	r.Score = score
	r.PassingScore = passing
	return nil
}

func decimal(raw json.RawMessage) (float64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
