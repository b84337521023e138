package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/mcq"
	"github.com/p-n-ai/pai-lms/internal/quiz"
)

func (cli *commandLine) quiz(ctx context.Context, args []string) error {
	fs := cli.flags("quiz")
	course := fs.String("course", "", "Course id.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *course == "" {
		fs.Usage()
		return errHelp
	}
	c, err := cli.api(false)
	if err != nil {
		return err
	}

	s := quiz.NewSession(*course, c)
	if err := s.Load(ctx); err != nil {
		return err
	}
	for {
		if len(s.Questions()) == 0 {
			fmt.Fprintln(cli.out, "No questions available for this course.")
			return nil
		}
		if err := cli.answerAll(s); err != nil {
			return err
		}

		res, err := s.Submit(ctx)
		if err != nil {
			return err
		}
		cli.record(audit.ActionQuizSubmitted, *course, map[string]any{"score": res.Score, "passed": res.Passed})
		cli.printResult(res)
		if res.Passed || !cli.confirm("Try again?") {
			return nil
		}
		if err := s.Retry(ctx); err != nil {
			return err
		}
	}
}

// answerAll walks the navigator until every question has an answer.
func (cli *commandLine) answerAll(s *quiz.Session) error {
	total := len(s.Questions())
	for {
		q, ok := s.Current()
		if !ok {
			return nil
		}
		if _, answered := s.Answer(q.ID); !answered {
			if err := cli.ask(s, q, s.Cursor()+1, total); err != nil {
				return err
			}
			continue
		}
		if s.Answered() == total {
			return nil
		}
		if !s.Next() {
			// wrap to the first unanswered question
			for _, item := range s.Navigator() {
				if !item.Answered {
					if err := s.Jump(item.Index); err != nil {
						return err
					}
					break
				}
			}
		}
	}
}

func (cli *commandLine) ask(s *quiz.Session, q quiz.Question, n, total int) error {
	fmt.Fprintf(cli.out, "Question %d of %d: %s\n", n, total, q.Text)
	for _, o := range mcq.Options {
		fmt.Fprintf(cli.out, "  %s) %s\n", o, q.OptionText(o))
	}
	hint := "one option"
	if q.MultipleAnswer {
		hint = "one or more options, comma separated"
	}
	fmt.Fprintf(cli.out, "Answer (%s): ", hint)

	line, err := cli.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
		return quiz.ErrIncomplete
	}
	picks, perr := parseOptions(line)
	if perr != nil || len(picks) == 0 || (!q.MultipleAnswer && len(picks) > 1) {
		fmt.Fprintln(cli.out, "Please pick", hint+".")
		return nil
	}
	for _, o := range picks {
		if err := s.Choose(q.ID, o); err != nil {
			return err
		}
	}
	return nil
}

func (cli *commandLine) printResult(r quiz.Result) {
	verdict := "not passed"
	if r.Passed {
		verdict = "passed"
	}
	fmt.Fprintf(cli.out, "Score: %.1f%% (%s)\n", r.Score, verdict)
	if r.TotalQuestions > 0 {
		fmt.Fprintf(cli.out, "Correct: %d of %d\n", r.CorrectAnswers, r.TotalQuestions)
	}
	if r.AttemptNumber > 0 {
		fmt.Fprintf(cli.out, "Attempt: %d\n", r.AttemptNumber)
	}
}
