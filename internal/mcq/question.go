// Package mcq holds multiple-choice questions, the rules a question must meet
// before it is saved, and the admin form that edits one.
package mcq

import (
	"fmt"
	"slices"
	"strings"
)

// Option is one of the four fixed answer slots.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// Options lists the answer slots in display order.
var Options = []Option{OptionA, OptionB, OptionC, OptionD}

// ParseOption accepts "a".."d" in either case.
func ParseOption(s string) (Option, error) {
	o := Option(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(Options, o) {
		return "", fmt.Errorf("invalid option %q: must be one of A, B, C, D", s)
	}
	return o, nil
}

// Question is an MCQ as the admin sees it, including the correct answers.
type Question struct {
	ID             string   `json:"question_id,omitempty"`
	Text           string   `json:"question_text"`
	OptionA        string   `json:"option_a"`
	OptionB        string   `json:"option_b"`
	OptionC        string   `json:"option_c"`
	OptionD        string   `json:"option_d"`
	CorrectAnswers []Option `json:"correct_answers"`
	MultipleAnswer bool     `json:"multiple_answer_flag"`
}

// OptionText returns the text of slot o.
func (q Question) OptionText(o Option) string {
	switch o {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	}
	return ""
}

// SetOptionText sets the text of slot o.
func (q *Question) SetOptionText(o Option, text string) {
	switch o {
	case OptionA:
		q.OptionA = text
	case OptionB:
		q.OptionB = text
	case OptionC:
		q.OptionC = text
	case OptionD:
		q.OptionD = text
	}
}

// IsCorrect reports whether o is among the correct answers.
func (q Question) IsCorrect(o Option) bool {
	return slices.Contains(q.CorrectAnswers, o)
}

// clone returns a copy that shares no slice with q.
func (q Question) clone() Question {
	q.CorrectAnswers = slices.Clone(q.CorrectAnswers)
	return q
}
