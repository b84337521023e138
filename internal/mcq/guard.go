package mcq

import (
	"slices"
	"strings"
)

// Guard names one rule a question must satisfy before it can be saved.
type Guard int

const (
	GuardQuestionText Guard = iota + 1
	GuardOptions
	GuardAnswerRequired
	GuardMultipleNeedsTwo
	GuardSingleNeedsOne
	GuardAnswerOptions
)

var guardMessages = map[Guard]string{
	GuardQuestionText:     "Please enter a question",
	GuardOptions:          "Please fill in all options",
	GuardAnswerRequired:   "Please select at least one correct answer",
	GuardMultipleNeedsTwo: "Multiple answer question must have more than one correct answer",
	GuardSingleNeedsOne:   "Single answer question can only have one correct answer",
	GuardAnswerOptions:    "Correct answers must be among options A, B, C and D",
}

func (g Guard) String() string {
	switch g {
	case GuardQuestionText:
		return "question_text"
	case GuardOptions:
		return "options"
	case GuardAnswerRequired:
		return "answer_required"
	case GuardMultipleNeedsTwo:
		return "multiple_answer"
	case GuardSingleNeedsOne:
		return "single_answer"
	case GuardAnswerOptions:
		return "answer_options"
	default:
		return "unknown"
	}
}

// GuardError is a failed guard. It never reaches the network.
type GuardError struct {
	Guard   Guard
	Message string
}

func (e *GuardError) Error() string {
	return "mcq " + e.Guard.String() + ": " + e.Message
}

// UserMessage returns the guard's fixed message.
func (e *GuardError) UserMessage() string {
	return e.Message
}

func fail(g Guard) error {
	return &GuardError{Guard: g, Message: guardMessages[g]}
}

// Validate checks q against the guards in order and returns the first
// failure as a *GuardError. Correct answers outside A..D fail before the
// count guards, which count distinct options only.
func Validate(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fail(GuardQuestionText)
	}
	for _, o := range Options {
		if strings.TrimSpace(q.OptionText(o)) == "" {
			return fail(GuardOptions)
		}
	}
	var distinct []Option
	for _, o := range q.CorrectAnswers {
		if !slices.Contains(Options, o) {
			return fail(GuardAnswerOptions)
		}
		if !slices.Contains(distinct, o) {
			distinct = append(distinct, o)
		}
	}
	n := len(distinct)
	if n == 0 {
		return fail(GuardAnswerRequired)
	}
	if q.MultipleAnswer && n < 2 {
		return fail(GuardMultipleNeedsTwo)
	}
	if !q.MultipleAnswer && n != 1 {
		return fail(GuardSingleNeedsOne)
	}
	return nil
}
