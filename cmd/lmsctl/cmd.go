package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/term"

	"github.com/p-n-ai/pai-lms/internal/assignment"
	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/capstone"
	"github.com/p-n-ai/pai-lms/internal/hierarchy"
	"github.com/p-n-ai/pai-lms/internal/lmsapi"
	"github.com/p-n-ai/pai-lms/internal/mcq"
	"github.com/p-n-ai/pai-lms/internal/platform/apierror"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/report"
	"github.com/p-n-ai/pai-lms/internal/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp      = errors.New("help provided")
	errAdminOnly = errors.New("this command needs an admin account")
)

type commandLine struct {
	cfg    *config.Config
	client *lmsapi.Client
	sess   *session.Manager
	events audit.Logger
	out    io.Writer
	in     *bufio.Reader
}

// recentReader is implemented by audit loggers that can list past events.
type recentReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                          - sign in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                                      - sign out")
	fmt.Fprintln(cli.out, "  whoami                                      - show the signed-in user")
	fmt.Fprintln(cli.out, "  tree                                        - show tracks, subtracks and courses")
	fmt.Fprintln(cli.out, "  courses [-q QUERY]                          - search courses grouped by track and subtrack")
	fmt.Fprintln(cli.out, "  subtracks [-q QUERY]                        - search subtracks grouped by track")
	fmt.Fprintln(cli.out, "  employees                                   - list employees")
	fmt.Fprintln(cli.out, "  assignments -employee ID [-q QUERY]         - show an employee's course assignments")
	fmt.Fprintln(cli.out, "  assign -employee ID -course ID [-due DATE]  - assign a course")
	fmt.Fprintln(cli.out, "  unassign -employee ID -course ID [-yes]     - remove a course assignment")
	fmt.Fprintln(cli.out, "  mcq list|add|import|delete ...              - manage a course's questions")
	fmt.Fprintln(cli.out, "  my-courses                                  - list your assigned courses")
	fmt.Fprintln(cli.out, "  quiz -course ID                             - take a course quiz")
	fmt.Fprintln(cli.out, "  capstones [-tag TAG] | capstone -id ID      - browse capstone projects")
	fmt.Fprintln(cli.out, "  export -what tree|assignments [-employee ID] [-out FILE]")
	fmt.Fprintln(cli.out, "  audit [-limit N]                            - show recent audit events")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	cmd, rest := args[1], args[2:]

	if cmd != "login" {
		if err := cli.sess.Init(ctx); err != nil {
			fmt.Fprintln(cli.out, "Your session has ended. Please log in again.")
		}
	}

	switch cmd {
	case "login":
		return cli.login(ctx, rest)
	case "logout":
		if err := cli.sess.Teardown(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Signed out.")
		return nil
	case "whoami":
		u, err := cli.sess.Require()
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%s <%s> %s (%s)\n", u.EmployeeName, u.Email, u.EmployeeID, u.Role)
		return nil
	case "tree":
		return cli.tree(ctx)
	case "courses":
		return cli.courses(ctx, rest)
	case "subtracks":
		return cli.subtracks(ctx, rest)
	case "employees":
		return cli.employees(ctx)
	case "assignments", "assign", "unassign":
		return cli.assignment(ctx, cmd, rest)
	case "mcq":
		return cli.mcq(ctx, rest)
	case "my-courses":
		return cli.myCourses(ctx)
	case "quiz":
		return cli.quiz(ctx, rest)
	case "capstones", "capstone":
		return cli.capstones(ctx, cmd, rest)
	case "export":
		return cli.export(ctx, rest)
	case "audit":
		return cli.audit(ctx, rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// api returns a client carrying the session token. admin restricts the
// command to admin users.
func (cli *commandLine) api(admin bool) (*lmsapi.Client, error) {
	u, err := cli.sess.Require()
	if err != nil {
		return nil, err
	}
	if admin && !u.IsAdmin() {
		return nil, errAdminOnly
	}
	return cli.client.WithToken(cli.sess.Token()), nil
}

func (cli *commandLine) actor() string {
	u, _ := cli.sess.User()
	return u.EmployeeID
}

func (cli *commandLine) record(action, subject string, data map[string]any) {
	if err := cli.events.LogEvent(audit.Event{Actor: cli.actor(), Action: action, SubjectID: subject, Data: data}); err != nil {
		fmt.Fprintln(cli.out, "warning: audit event not recorded:", err)
	}
}

// confirm asks a yes/no question on the input stream. Anything but y/yes is no.
func (cli *commandLine) confirm(question string) bool {
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	line, _ := cli.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flags("login")
	email := fs.String("email", "", "Your email. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}
	u, err := cli.sess.Login(ctx, *email, string(pwd))
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Signed in as %s (%s).\n", u.EmployeeName, u.Role)
	return nil
}

func (cli *commandLine) tree(ctx context.Context) error {
	c, err := cli.api(true)
	if err != nil {
		return err
	}
	tree, warnings, err := c.AssembleTree(ctx)
	if err != nil {
		return err
	}
	for _, t := range tree {
		fmt.Fprintf(cli.out, "%s  %s\n", t.ID, t.Name)
		for _, st := range t.Subtracks {
			fmt.Fprintf(cli.out, "  %s  %s\n", st.ID, st.Name)
			for _, course := range st.Courses {
				fmt.Fprintf(cli.out, "    %s  %s\n", course.ID, course.Name)
			}
		}
	}
	for _, w := range warnings {
		fmt.Fprintln(cli.out, "warning:", w.Message)
	}
	return nil
}

func (cli *commandLine) printGrouping(g hierarchy.Grouping) {
	if g.Empty() {
		fmt.Fprintln(cli.out, "No courses found.")
		return
	}
	for _, tb := range g.Tracks {
		fmt.Fprintln(cli.out, tb.Name)
		for _, sb := range tb.Subtracks {
			fmt.Fprintln(cli.out, "  "+sb.Name)
			for _, course := range sb.Courses {
				fmt.Fprintf(cli.out, "    %s  %s\n", course.ID, course.Name)
			}
		}
	}
}

func (cli *commandLine) courses(ctx context.Context, args []string) error {
	fs := cli.flags("courses")
	q := fs.String("q", "", "Match course, subtrack or track names.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	c, err := cli.api(true)
	if err != nil {
		return err
	}
	all, err := c.ListCourses(ctx)
	if err != nil {
		return err
	}
	cli.printGrouping(hierarchy.GroupByTrackThenSubtrack(hierarchy.FilterCourses(all, *q)))
	return nil
}

func (cli *commandLine) subtracks(ctx context.Context, args []string) error {
	fs := cli.flags("subtracks")
	q := fs.String("q", "", "Match subtrack or track names.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	c, err := cli.api(true)
	if err != nil {
		return err
	}
	tree, err := c.CompleteTree(ctx)
	if err != nil {
		return err
	}
	groups := hierarchy.GroupSubtracksByTrack(hierarchy.FilterSubtracks(tree.Subtracks(), *q))
	if len(groups) == 0 {
		fmt.Fprintln(cli.out, "No subtracks found.")
		return nil
	}
	for _, g := range groups {
		fmt.Fprintln(cli.out, g.TrackName)
		for _, st := range g.Subtracks {
			fmt.Fprintf(cli.out, "  %s  %s\n", st.SubTrackID, st.SubTrackName)
		}
	}
	return nil
}

func (cli *commandLine) employees(ctx context.Context) error {
	c, err := cli.api(true)
	if err != nil {
		return err
	}
	list, err := c.Employees(ctx)
	if err != nil {
		return err
	}
	for _, e := range list {
		fmt.Fprintf(cli.out, "%s  %s <%s> %s\n", e.EmployeeID, e.EmployeeName, e.Email, e.Role)
	}
	return nil
}

func (cli *commandLine) assignment(ctx context.Context, cmd string, args []string) error {
	fs := cli.flags(cmd)
	employee := fs.String("employee", "", "Employee id.")
	course := fs.String("course", "", "Course id.")
	due := fs.String("due", "", "Due date as YYYY-MM-DD.")
	q := fs.String("q", "", "Filter the overlay by course, subtrack or track name.")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *employee == "" || (cmd != "assignments" && *course == "") {
		fs.Usage()
		return errHelp
	}
	c, err := cli.api(true)
	if err != nil {
		return err
	}
	m := assignment.NewManager(c, cli.events, cli.actor())
	if err := m.Load(ctx, *employee); err != nil {
		return err
	}

	switch cmd {
	case "assign":
		if err := m.StageDueDate(*course, *due); err != nil {
			return err
		}
		err := m.Assign(ctx, *course)
		if err != nil && !errors.Is(err, assignment.ErrReload) {
			return err
		}
		fmt.Fprintf(cli.out, "Assigned %s to %s.\n", *course, *employee)
		if err != nil {
			return err
		}
	case "unassign":
		err := m.Unassign(ctx, *course, func(string) bool {
			return *yes || cli.confirm(assignment.ConfirmPrompt)
		})
		if err != nil && !errors.Is(err, assignment.ErrReload) {
			return err
		}
		fmt.Fprintf(cli.out, "Removed %s from %s.\n", *course, *employee)
		if err != nil {
			return err
		}
	}

	for _, e := range m.Overlay().Filter(*q).Entries {
		mark := "[ ]"
		if e.Assigned {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s  %s", mark, e.Course.ID, e.Course.Name)
		if e.DueDate != "" {
			line += "  due " + e.DueDate
		}
		fmt.Fprintln(cli.out, line)
	}
	return nil
}

func (cli *commandLine) myCourses(ctx context.Context) error {
	c, err := cli.api(false)
	if err != nil {
		return err
	}
	courses, err := c.AssignedCourses(ctx)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		fmt.Fprintln(cli.out, "No courses assigned.")
		return nil
	}
	for _, a := range courses {
		line := fmt.Sprintf("%s  %s", a.CourseID, a.CourseName)
		if a.DueDate != "" {
			line += "  due " + a.DueDate
		}
		fmt.Fprintln(cli.out, line)
	}
	return nil
}

func (cli *commandLine) capstones(ctx context.Context, cmd string, args []string) error {
	fs := cli.flags(cmd)
	tag := fs.String("tag", "", "Only capstones with this tag.")
	id := fs.String("id", "", "Capstone id.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	c, err := cli.api(false)
	if err != nil {
		return err
	}
	catalog := capstone.NewCatalog(c)

	if cmd == "capstones" {
		items, err := catalog.List(ctx, *tag)
		if err != nil {
			return err
		}
		for _, it := range items {
			fmt.Fprintf(cli.out, "%s  %s  (%d weeks) %s\n", it.ID, it.Name, it.DurationWeeks, strings.Join(it.Tags, ", "))
		}
		return nil
	}

	if *id == "" {
		fs.Usage()
		return errHelp
	}
	d, found, err := catalog.Lookup(ctx, *id)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(cli.out, "Capstone not found.")
		return nil
	}
	g, err := d.ParseGuidelines()
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s (%d weeks)\n%s\n", d.Name, d.DurationWeeks, g.Description)
	for _, w := range g.WeeklyPlan {
		fmt.Fprintf(cli.out, "  Week %d: %s\n", w.Week, w.Title)
	}
	if g.FinalDeliverable.Title != "" {
		fmt.Fprintln(cli.out, "Final deliverable:", g.FinalDeliverable.Title)
	}
	return nil
}

func (cli *commandLine) export(ctx context.Context, args []string) error {
	fs := cli.flags("export")
	what := fs.String("what", "tree", "tree or assignments.")
	employee := fs.String("employee", "", "Employee id for assignments.")
	out := fs.String("out", "", "Output file. Defaults to a file in LMS_EXPORT_DIR.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if (*what != "tree" && *what != "assignments") || (*what == "assignments" && *employee == "") {
		fs.Usage()
		return errHelp
	}
	c, err := cli.api(true)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		name := "tree.xlsx"
		if *what == "assignments" {
			name = "assignments-" + filepath.Base(*employee) + ".xlsx"
		}
		path = filepath.Join(cli.cfg.ExportDir, name)
	}

	var write func(io.Writer) error
	if *what == "tree" {
		tree, _, err := c.AssembleTree(ctx)
		if err != nil {
			return err
		}
		write = func(w io.Writer) error { return report.WriteTree(w, tree) }
	} else {
		m := assignment.NewManager(c, cli.events, cli.actor())
		if err := m.Load(ctx, *employee); err != nil {
			return err
		}
		o := m.Overlay()
		write = func(w io.Writer) error { return report.WriteAssignments(w, *employee, o) }
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	fmt.Fprintln(cli.out, "Wrote", path)
	return nil
}

func (cli *commandLine) audit(ctx context.Context, args []string) error {
	fs := cli.flags("audit")
	limit := fs.Int("limit", 20, "Number of events.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if _, err := cli.api(true); err != nil {
		return err
	}
	r, ok := cli.events.(recentReader)
	if !ok {
		fmt.Fprintln(cli.out, "Audit log is disabled. Set LMS_AUDIT_ENABLED=true to record events.")
		return nil
	}
	events, err := r.Recent(ctx, *limit)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Fprintf(cli.out, "%s  %-18s actor=%s subject=%s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Action, e.Actor, e.SubjectID)
	}
	return nil
}

// userMessage is the text printed for a failed command.
func userMessage(err error) string {
	return apierror.Message(err, err.Error())
}

// parseOptions reads a list such as "a, C" into options.
func parseOptions(s string) ([]mcq.Option, error) {
	var out []mcq.Option
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		o, err := mcq.ParseOption(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, o) {
			out = append(out, o)
		}
	}
	return out, nil
}
