package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/mcq"
)

func (cli *commandLine) mcqUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  mcq list -course ID")
	fmt.Fprintln(cli.out, "  mcq add -course ID -question TEXT -a TEXT -b TEXT -c TEXT -d TEXT -correct A[,C] [-multiple] [-id QID]")
	fmt.Fprintln(cli.out, "  mcq import -file FILE.yaml [-course ID]")
	fmt.Fprintln(cli.out, "  mcq delete -course ID -id QID [-yes]")
}

func (cli *commandLine) mcq(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.mcqUsage()
		return errHelp
	}
	sub, rest := args[0], args[1:]

	fs := cli.flags("mcq " + sub)
	course := fs.String("course", "", "Course id.")
	id := fs.String("id", "", "Question id.")
	text := fs.String("question", "", "Question text.")
	optA := fs.String("a", "", "Option A.")
	optB := fs.String("b", "", "Option B.")
	optC := fs.String("c", "", "Option C.")
	optD := fs.String("d", "", "Option D.")
	correct := fs.String("correct", "", "Correct options, comma separated.")
	multiple := fs.Bool("multiple", false, "Question has more than one correct answer.")
	file := fs.String("file", "", "YAML file of questions.")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt.")
	if err := fs.Parse(rest); err != nil {
		return errHelp
	}

	switch sub {
	case "list":
		if *course == "" {
			fs.Usage()
			return errHelp
		}
		return cli.mcqList(ctx, *course)
	case "add":
		if *course == "" {
			fs.Usage()
			return errHelp
		}
		answers, err := parseOptions(*correct)
		if err != nil {
			return err
		}
		texts := map[mcq.Option]string{mcq.OptionA: *optA, mcq.OptionB: *optB, mcq.OptionC: *optC, mcq.OptionD: *optD}
		return cli.mcqAdd(ctx, *course, *id, *text, texts, answers, *multiple)
	case "import":
		if *file == "" {
			fs.Usage()
			return errHelp
		}
		return cli.mcqImport(ctx, *file, *course)
	case "delete":
		if *course == "" || *id == "" {
			fs.Usage()
			return errHelp
		}
		if !*yes && !cli.confirm("Delete question "+*id+"?") {
			fmt.Fprintln(cli.out, "Cancelled.")
			return nil
		}
		c, err := cli.api(true)
		if err != nil {
			return err
		}
		if err := c.DeleteMCQ(ctx, *course, *id); err != nil {
			return err
		}
		cli.record(audit.ActionMCQDeleted, *course, map[string]any{"question_id": *id})
		fmt.Fprintln(cli.out, "Deleted", *id)
		return nil
	default:
		cli.mcqUsage()
		return errHelp
	}
}

func (cli *commandLine) mcqList(ctx context.Context, courseID string) error {
	c, err := cli.api(true)
	if err != nil {
		return err
	}
	qs, err := c.CourseMCQs(ctx, courseID)
	if err != nil {
		return err
	}
	if len(qs) == 0 {
		fmt.Fprintln(cli.out, "No questions yet.")
		return nil
	}
	for i, q := range qs {
		kind := "single"
		if q.MultipleAnswer {
			kind = "multiple"
		}
		fmt.Fprintf(cli.out, "%d. [%s] %s (%s)\n", i+1, q.ID, q.Text, kind)
		for _, o := range mcq.Options {
			mark := " "
			if q.IsCorrect(o) {
				mark = "*"
			}
			fmt.Fprintf(cli.out, "   %s%s) %s\n", mark, o, q.OptionText(o))
		}
	}
	return nil
}

// mcqAdd fills a form the way the admin screen does and submits it. When id
// is set the form edits that question instead of creating one.
func (cli *commandLine) mcqAdd(ctx context.Context, courseID, id, text string, options map[mcq.Option]string, correct []mcq.Option, multiple bool) error {
	c, err := cli.api(true)
	if err != nil {
		return err
	}
	// a radio selection keeps only the last pick, so report the guard instead
	if !multiple && len(correct) > 1 {
		q := mcq.Question{Text: text, CorrectAnswers: correct}
		for o, t := range options {
			q.SetOptionText(o, t)
		}
		return mcq.Validate(q)
	}
	form := mcq.NewForm(courseID)
	if id != "" {
		form = mcq.EditForm(courseID, mcq.Question{ID: id})
	}
	if err := form.SetText(text); err != nil {
		return err
	}
	for _, o := range mcq.Options {
		if err := form.SetOption(o, options[o]); err != nil {
			return err
		}
	}
	if err := form.SetMultiple(multiple); err != nil {
		return err
	}
	for _, o := range correct {
		if err := form.Select(o); err != nil {
			return err
		}
	}

	saved, err := form.Submit(ctx, c)
	if err != nil {
		return err
	}
	cli.record(audit.ActionMCQSaved, courseID, map[string]any{"question_id": saved.ID})
	fmt.Fprintf(cli.out, "Saved question %s (%s).\n", saved.ID, strings.Join(optionStrings(saved.CorrectAnswers), ","))
	return nil
}

func (cli *commandLine) mcqImport(ctx context.Context, path, courseID string) error {
	c, err := cli.api(true)
	if err != nil {
		return err
	}
	rep, err := mcq.ImportFile(ctx, path, courseID, c)
	for _, f := range rep.Failed {
		fmt.Fprintf(cli.out, "entry %d: %s\n", f.Index+1, userMessage(f.Err))
	}
	if len(rep.Created) > 0 {
		cli.record(audit.ActionMCQImported, courseID, map[string]any{"created": len(rep.Created), "file": path})
		fmt.Fprintf(cli.out, "Imported %d questions.\n", len(rep.Created))
	}
	return err
}

func optionStrings(opts []mcq.Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = string(o)
	}
	return out
}
