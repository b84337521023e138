package mcq_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/pai-lms/internal/mcq"
)

func filled() mcq.Question {
	return mcq.Question{
		Text:    "Which tool schedules DAGs?",
		OptionA: "Airflow",
		OptionB: "Excel",
		OptionC: "Paint",
		OptionD: "Notepad",
	}
}

func TestValidate_GuardOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *mcq.Question)
		want   mcq.Guard
	}{
		{"blank text", func(q *mcq.Question) { q.Text = "   " }, mcq.GuardQuestionText},
		{"blank text wins over blank option", func(q *mcq.Question) { q.Text = ""; q.OptionC = "" }, mcq.GuardQuestionText},
		{"blank option", func(q *mcq.Question) { q.OptionD = " \t" }, mcq.GuardOptions},
		{"no answer", func(q *mcq.Question) {}, mcq.GuardAnswerRequired},
		{"multiple with one", func(q *mcq.Question) {
			q.MultipleAnswer = true
			q.CorrectAnswers = []mcq.Option{mcq.OptionA}
		}, mcq.GuardMultipleNeedsTwo},
		{"single with two", func(q *mcq.Question) {
			q.CorrectAnswers = []mcq.Option{mcq.OptionA, mcq.OptionB}
		}, mcq.GuardSingleNeedsOne},
		{"unknown answer", func(q *mcq.Question) {
			q.CorrectAnswers = []mcq.Option{"Z"}
		}, mcq.GuardAnswerOptions},
		{"unknown answer wins over count", func(q *mcq.Question) {
			q.MultipleAnswer = true
			q.CorrectAnswers = []mcq.Option{mcq.OptionA, "Z"}
		}, mcq.GuardAnswerOptions},
		{"lowercase answer", func(q *mcq.Question) {
			q.CorrectAnswers = []mcq.Option{"a"}
		}, mcq.GuardAnswerOptions},
		{"multiple with a repeated answer", func(q *mcq.Question) {
			q.MultipleAnswer = true
			q.CorrectAnswers = []mcq.Option{mcq.OptionA, mcq.OptionA}
		}, mcq.GuardMultipleNeedsTwo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := filled()
			tt.mutate(&q)
			err := mcq.Validate(q)
			var ge *mcq.GuardError
			if !errors.As(err, &ge) {
				t.Fatalf("Validate() error = %v, want *GuardError", err)
			}
			if ge.Guard != tt.want {
				t.Errorf("Guard = %v, want %v", ge.Guard, tt.want)
			}
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	want := map[mcq.Guard]string{
		mcq.GuardQuestionText:     "Please enter a question",
		mcq.GuardOptions:          "Please fill in all options",
		mcq.GuardAnswerRequired:   "Please select at least one correct answer",
		mcq.GuardMultipleNeedsTwo: "Multiple answer question must have more than one correct answer",
		mcq.GuardSingleNeedsOne:   "Single answer question can only have one correct answer",
		mcq.GuardAnswerOptions:    "Correct answers must be among options A, B, C and D",
	}
	cases := map[mcq.Guard]mcq.Question{
		mcq.GuardQuestionText:   {},
		mcq.GuardOptions:        {Text: "q"},
		mcq.GuardAnswerRequired: filled(),
	}
	multi := filled()
	multi.MultipleAnswer = true
	multi.CorrectAnswers = []mcq.Option{mcq.OptionB}
	cases[mcq.GuardMultipleNeedsTwo] = multi
	single := filled()
	single.CorrectAnswers = []mcq.Option{mcq.OptionA, mcq.OptionC, mcq.OptionD}
	cases[mcq.GuardSingleNeedsOne] = single
	unknown := filled()
	unknown.CorrectAnswers = []mcq.Option{"E"}
	cases[mcq.GuardAnswerOptions] = unknown

	for g, q := range cases {
		var ge *mcq.GuardError
		if !errors.As(mcq.Validate(q), &ge) {
			t.Fatalf("%v: expected guard error", g)
		}
		if ge.UserMessage() != want[g] {
			t.Errorf("%v: message = %q, want %q", g, ge.UserMessage(), want[g])
		}
	}
}

// Every (flag, count) pair either fails exactly one guard or satisfies the
// count rule for its mode.
func TestValidate_Totality(t *testing.T) {
	for _, multiple := range []bool{false, true} {
		for n := 0; n <= len(mcq.Options); n++ {
			q := filled()
			q.MultipleAnswer = multiple
			q.CorrectAnswers = append([]mcq.Option{}, mcq.Options[:n]...)

			err := mcq.Validate(q)
			valid := (multiple && n >= 2) || (!multiple && n == 1)
			if valid && err != nil {
				t.Errorf("multiple=%v n=%d: unexpected error %v", multiple, n, err)
			}
			if !valid {
				var ge *mcq.GuardError
				if !errors.As(err, &ge) {
					t.Errorf("multiple=%v n=%d: expected a guard error, got %v", multiple, n, err)
				}
			}
		}
	}

	// repeated or out-of-range entries never satisfy a count rule
	for _, multiple := range []bool{false, true} {
		for _, answers := range [][]mcq.Option{
			{mcq.OptionA, mcq.OptionA},
			{mcq.OptionB, mcq.OptionB, mcq.OptionB},
			{mcq.OptionA, "Z"},
			{"Z"},
			{"Z", "Y"},
		} {
			q := filled()
			q.MultipleAnswer = multiple
			q.CorrectAnswers = answers
			var ge *mcq.GuardError
			if err := mcq.Validate(q); !errors.As(err, &ge) {
				t.Errorf("multiple=%v answers=%v: expected a guard error, got %v", multiple, answers, err)
			}
		}
	}
}

func TestParseOption(t *testing.T) {
	for _, in := range []string{"a", "B", " c ", "D"} {
		if _, err := mcq.ParseOption(in); err != nil {
			t.Errorf("ParseOption(%q) error = %v", in, err)
		}
	}
	for _, in := range []string{"", "E", "AB"} {
		if _, err := mcq.ParseOption(in); err == nil {
			t.Errorf("ParseOption(%q) expected error", in)
		}
	}
}
