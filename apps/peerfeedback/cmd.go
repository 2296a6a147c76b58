package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/trezcool/peerfeedback/apps/peerfeedback/tui"
	"github.com/trezcool/peerfeedback/assets"
	"github.com/trezcool/peerfeedback/core"
	"github.com/trezcool/peerfeedback/core/archive"
	"github.com/trezcool/peerfeedback/core/feedback"
	"github.com/trezcool/peerfeedback/core/pipeline"
	"github.com/trezcool/peerfeedback/core/roster"
	"github.com/trezcool/peerfeedback/services/email"
	"github.com/trezcool/peerfeedback/storage/roster/csvfile"
	"github.com/trezcool/peerfeedback/storage/workbook/xlsx"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	runTUIFunc       = tui.Run           // mockable

	errHelp     = errors.New("help provided")
	errCanceled = errors.New("canceled")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	in     *bufio.Reader
	out    io.Writer

	// overridden in tests; built from conf when nil
	mailer    core.EmailService
	rosters   roster.Repository
	workbooks feedback.WorkbookReader
}

func newCommandLine(conf *core.Config, logger core.Logger, in io.Reader, out io.Writer) *commandLine {
	return &commandLine{
		conf:   conf,
		logger: logger,
		in:     bufio.NewReader(in),
		out:    out,
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  run [-file PATH] [-date DATE] [-course COURSE] [-test y|n] - process a feedback workbook (prompts for what is missing)")
	fmt.Fprintln(cli.out, "  check -file PATH -course COURSE - match a workbook against the class list without sending anything")
	fmt.Fprintln(cli.out, "  tui - fill in the run parameters in a terminal form")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runCmd := flag.NewFlagSet("run", flag.ContinueOnError)
	runCmd.SetOutput(cli.out)
	runFile := runCmd.String("file", "", "The workbook to process. Defaults to the most recent .xlsx of the inbox directory (asks for confirmation).")
	runDate := runCmd.String("date", "", "The tutorial date, e.g. \"Jan 05\".")
	runCourse := runCmd.String("course", "", "The course number.")
	runTest := runCmd.String("test", "", "Test run (y|n): every email goes to the test address and nothing is archived.")

	checkCmd := flag.NewFlagSet("check", flag.ContinueOnError)
	checkCmd.SetOutput(cli.out)
	checkFile := checkCmd.String("file", "", "The workbook to check.")
	checkCourse := checkCmd.String("course", "", "The course number.")

	switch args[1] {
	case "run":
		if err := runCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.runBatch(ctx, *runFile, *runDate, *runCourse, *runTest)
	case "check":
		if err := checkCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *checkFile == "" || *checkCourse == "" {
			checkCmd.Usage()
			return errHelp
		}
		return cli.check(ctx, *checkFile, *checkCourse)
	case "tui":
		runner, err := cli.newRunner()
		if err != nil {
			return err
		}
		return runTUIFunc(ctx, runner, tui.Defaults{TestAddress: cli.conf.TestRunEmail})
	default:
		cli.printUsage()
		return errHelp
	}
}

// runBatch collects the run parameters then runs the whole pipeline.
func (cli *commandLine) runBatch(ctx context.Context, file, date, course, test string) error {
	if date == "" {
		date = cli.prompt("Enter tutorial date:")
	}
	if course == "" {
		course = cli.prompt("Enter course number:")
	}
	if test == "" {
		test = cli.prompt("Is this a test run? Y/N")
	}
	params := pipeline.Params{
		TutorialDate: date,
		Course:       course,
		TestRun:      !isNo(test),
		TestAddress:  cli.conf.TestRunEmail,
		File:         file,
	}

	if params.File == "" {
		fp, err := cli.selectWorkbook()
		if err != nil {
			return err
		}
		params.File = fp
	}

	runner, err := cli.newRunner()
	if err != nil {
		return err
	}
	outcome, err := runner.Run(ctx, params, func(step string, percent int) {
		fmt.Fprintf(cli.out, "[%3d%%] %s\n", percent, step)
	})
	if err != nil {
		return err
	}

	for _, recipient := range outcome.Report.Recipients {
		fmt.Fprintln(cli.out, recipient)
	}
	fmt.Fprintf(cli.out, "%d emails sent (test run: %t)\n", len(outcome.Report.SentTo), params.TestRun)
	fmt.Fprintf(cli.out, "grades: %s\n", outcome.GradesPath)
	if outcome.ArchivedTo != "" {
		fmt.Fprintf(cli.out, "archived: %s\n", outcome.ArchivedTo)
	}
	return nil
}

// selectWorkbook proposes the most recent workbook of the inbox and waits for confirmation.
func (cli *commandLine) selectWorkbook() (string, error) {
	dir := cli.conf.InboxDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Downloads")
	}
	fp, modTime, err := latestWorkbook(dir)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(cli.out, fp)
	fmt.Fprintln(cli.out, modTime.Format("2006-01-02"))
	if isNo(cli.prompt("Press enter to continue or N to cancel")) {
		return "", errCanceled
	}
	return fp, nil
}

func (cli *commandLine) check(ctx context.Context, file, course string) error {
	runner, err := cli.newRunner()
	if err != nil {
		return err
	}
	res, err := runner.Check(ctx, course, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d submissions, %d feedback entries\n", res.Submissions, res.Bundles.Total())
	fmt.Fprintf(cli.out, "%d recipients with feedback\n", len(res.Bundles.NonEmpty()))
	fmt.Fprintf(cli.out, "participation: %d of %d\n", len(res.Present()), len(res.IDs()))
	if absent := res.Absent(); len(absent) > 0 {
		fmt.Fprintf(cli.out, "no participation: %s\n", strings.Join(absent, ", "))
	}
	return nil
}

func (cli *commandLine) newRunner() (*pipeline.Runner, error) {
	mapping, err := feedback.MappingFromConfig(cli.conf.Mapping)
	if err != nil {
		return nil, err
	}
	tmpls, err := cli.templates()
	if err != nil {
		return nil, err
	}
	mailer, err := cli.mailService()
	if err != nil {
		return nil, err
	}

	rosters := cli.rosters
	if rosters == nil {
		rosters = csvroster.NewRepository(cli.conf.RosterDir)
	}
	workbooks := cli.workbooks
	if workbooks == nil {
		workbooks = xlsxbook.NewReader()
	}

	return pipeline.NewRunner(pipeline.Deps{
		Rosters:       rosters,
		Workbooks:     workbooks,
		Mapping:       mapping,
		Instructors:   cli.conf.Instructors,
		Term:          cli.conf.Term,
		Mailer:        mailer,
		Templates:     tmpls,
		SubjectPrefix: cli.conf.CourseSubjectPrefix,
		GradebookDir:  cli.conf.GradebookDir,
		Archiver:      archive.New(cli.conf.ArchiveDir, cli.conf.Term),
		Logger:        cli.logger,
	})
}

func (cli *commandLine) templates() (*core.Templates, error) {
	var fsys fs.FS
	if cli.conf.TemplatesDir != "" {
		fsys = os.DirFS(cli.conf.TemplatesDir)
	} else {
		fsys = assets.EmailTemplates()
	}
	return core.LoadTemplates(fsys, cli.conf.AppName, cli.conf.Debug || cli.conf.TestMode)
}

func (cli *commandLine) mailService() (core.EmailService, error) {
	if cli.mailer != nil {
		return cli.mailer, nil
	}
	mc := cli.conf.Mail
	if (mc.Driver == "" || mc.Driver == emailsvc.DriverSMTP) && mc.Username != "" && mc.Password == "" {
		fmt.Fprintf(cli.out, "Enter SMTP password for %s:", mc.Username)
		pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
		fmt.Fprintln(cli.out)
		if err != nil {
			return nil, err
		}
		cli.conf.Mail.Password = string(pwd)
	}
	return emailsvc.NewService(cli.conf, cli.logger)
}
