// Package pipeline runs a peer feedback batch: load the class list, aggregate
// the form submissions, mail the feedback, export grades, archive the workbook.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/peerfeedback/core"
	"github.com/trezcool/peerfeedback/core/archive"
	"github.com/trezcool/peerfeedback/core/feedback"
	"github.com/trezcool/peerfeedback/core/gradebook"
	"github.com/trezcool/peerfeedback/core/notify"
	"github.com/trezcool/peerfeedback/core/roster"
)

// step names
const (
	StepLoadRoster = "load class list"
	StepAggregate  = "assess data"
	StepNotify     = "send emails"
	StepExport     = "export grades"
	StepArchive    = "archive workbook"
)

type (
	// Params are what the user enters for a run.
	Params struct {
		TutorialDate string `json:"tutorial_date" validate:"required,tutorialdate"`
		Course       string `json:"course" validate:"required,notblank"`
		TestRun      bool   `json:"test_run"`
		TestAddress  string `json:"test_address" validate:"omitempty,email"`
		File         string `json:"file" validate:"required,notblank"`
	}

	// Deps are the collaborators of a Runner.
	Deps struct {
		Rosters       roster.Repository
		Workbooks     feedback.WorkbookReader
		Mapping       feedback.FieldMapping
		Instructors   []string
		Term          string
		Mailer        core.EmailService
		Templates     *core.Templates
		SubjectPrefix string
		GradebookDir  string
		Archiver      *archive.Archiver
		Validator     *core.Validator
		Logger        core.Logger
	}

	Runner struct {
		deps Deps
	}

	// Progress is called before each step with the share of the run completed so far.
	Progress func(step string, percent int)

	// Outcome is what a completed run produced.
	Outcome struct {
		RunID      string
		Result     *feedback.Result
		Report     notify.Report
		GradesPath string
		ArchivedTo string // empty on test runs
	}

	step struct {
		name    string
		percent int
		fn      func(ctx context.Context) error
	}

	// Run is one planned batch. Steps execute in order, one per Next call.
	Run struct {
		runner   *Runner
		params   Params
		date     time.Time
		notifier *notify.Notifier
		steps    []step
		next     int
		failed   error

		roster  *roster.Roster
		outcome Outcome
	}
)

func NewRunner(deps Deps) (*Runner, error) {
	err := vala.BeginValidation().Validate(
		func() (bool, string) { return deps.Rosters != nil, "Rosters is required" },
		func() (bool, string) { return deps.Workbooks != nil, "Workbooks is required" },
		func() (bool, string) { return deps.Mailer != nil, "Mailer is required" },
		vala.StringNotEmpty(deps.Term, "Term"),
		vala.StringNotEmpty(deps.GradebookDir, "GradebookDir"),
		func() (bool, string) { return deps.Templates != nil, "Templates is required" },
		func() (bool, string) { return deps.Archiver != nil, "Archiver is required" },
	).Check()
	if err != nil {
		return nil, err
	}
	if deps.Validator == nil {
		deps.Validator = core.NewValidator()
	}
	if deps.Logger == nil {
		deps.Logger = core.NopLogger()
	}
	if err := deps.Mapping.Validate(deps.Validator); err != nil {
		return nil, errors.Wrap(err, "field mapping")
	}
	return &Runner{deps: deps}, nil
}

// Validate cleans and checks run parameters.
func (r *Runner) Validate(params *Params) error {
	params.TutorialDate = core.CleanString(params.TutorialDate)
	params.Course = core.CleanString(params.Course)
	params.TestAddress = core.CleanString(params.TestAddress)
	params.File = core.CleanString(params.File)

	if err := r.deps.Validator.Struct(params); err != nil {
		return err
	}
	if params.TestRun && params.TestAddress == "" {
		return core.NewValidationError(core.ErrInvalidParams, core.FieldError{Field: "test_address", Error: "test run email is required for a test run"})
	}
	return nil
}

// Plan validates params and prepares a run without executing anything.
func (r *Runner) Plan(params Params) (*Run, error) {
	if err := r.Validate(&params); err != nil {
		return nil, err
	}
	date, err := core.ParseTutorialDate(params.TutorialDate)
	if err != nil {
		return nil, err
	}
	notifier, err := notify.New(notify.Options{
		Mailer:        r.deps.Mailer,
		Templates:     r.deps.Templates,
		Logger:        r.deps.Logger,
		SubjectPrefix: r.deps.SubjectPrefix,
		TestRun:       params.TestRun,
		TestAddress:   params.TestAddress,
	})
	if err != nil {
		return nil, err
	}

	run := &Run{
		runner:   r,
		params:   params,
		date:     date,
		notifier: notifier,
		outcome:  Outcome{RunID: uuid.New().String()},
	}
	run.steps = []step{
		{name: StepLoadRoster, percent: 10, fn: run.loadRoster},
		{name: StepAggregate, percent: 20, fn: run.aggregate},
		{name: StepNotify, percent: 50, fn: run.notify},
		{name: StepExport, percent: 70, fn: run.export},
	}
	if !params.TestRun {
		run.steps = append(run.steps, step{name: StepArchive, percent: 90, fn: run.archive})
	}
	return run, nil
}

// Run plans and executes a whole batch.
func (r *Runner) Run(ctx context.Context, params Params, progress Progress) (Outcome, error) {
	run, err := r.Plan(params)
	if err != nil {
		return Outcome{}, err
	}
	return run.Execute(ctx, progress)
}

// Check loads the class list and aggregates file without mailing, exporting or archiving.
func (r *Runner) Check(ctx context.Context, course, file string) (*feedback.Result, error) {
	course, file = core.CleanString(course), core.CleanString(file)
	if course == "" || file == "" {
		return nil, core.NewValidationError(core.ErrInvalidParams,
			core.FieldError{Field: "course", Error: "course and file are required"})
	}
	run := &Run{runner: r, params: Params{Course: course, File: file}}
	if err := run.loadRoster(ctx); err != nil {
		return nil, err
	}
	if err := run.aggregate(ctx); err != nil {
		return nil, err
	}
	return run.outcome.Result, nil
}

// ID is the run id found in the run's log lines.
func (run *Run) ID() string { return run.outcome.RunID }

// Steps returns the step names in execution order.
func (run *Run) Steps() []string {
	names := make([]string, 0, len(run.steps))
	for _, s := range run.steps {
		names = append(names, s.name)
	}
	return names
}

// Percent returns the progress reached before the next step, 100 when done.
func (run *Run) Percent() int {
	if run.Done() {
		return 100
	}
	return run.steps[run.next].percent
}

// Pending returns the name of the next step, "" when done.
func (run *Run) Pending() string {
	if run.Done() {
		return ""
	}
	return run.steps[run.next].name
}

// Done reports whether every step ran or one failed.
func (run *Run) Done() bool { return run.failed != nil || run.next >= len(run.steps) }

// Outcome returns what the run produced so far.
func (run *Run) Outcome() Outcome { return run.outcome }

// Next executes the next step. Once a step fails the run is over and keeps returning that error.
func (run *Run) Next(ctx context.Context) error {
	if run.failed != nil {
		return run.failed
	}
	if run.next >= len(run.steps) {
		return nil
	}
	s := run.steps[run.next]
	log := run.runner.deps.Logger
	log.Debug("step started: "+s.name, core.RunID(run.ID()))
	if err := s.fn(ctx); err != nil {
		run.failed = errors.Wrap(err, s.name)
		log.Error("run failed", run.failed, core.RunID(run.ID()))
		return run.failed
	}
	run.next++
	if run.Done() {
		log.Info(fmt.Sprintf("run completed: %d emails, grades at %s, test run: %t",
			len(run.outcome.Report.SentTo), run.outcome.GradesPath, run.params.TestRun), core.RunID(run.ID()))
	}
	return nil
}

// Execute runs the remaining steps, reporting progress before each one.
func (run *Run) Execute(ctx context.Context, progress Progress) (Outcome, error) {
	for !run.Done() {
		if progress != nil {
			progress(run.Pending(), run.Percent())
		}
		if err := run.Next(ctx); err != nil {
			return run.outcome, err
		}
	}
	if progress != nil && run.failed == nil {
		progress("done", 100)
	}
	return run.outcome, run.failed
}

func (run *Run) loadRoster(ctx context.Context) error {
	deps := run.runner.deps
	r, err := deps.Rosters.Load(ctx, deps.Term, run.params.Course)
	if err != nil {
		return err
	}
	run.roster = r
	deps.Logger.Info(fmt.Sprintf("class list loaded: %d students", r.Len()), core.RunID(run.ID()))
	return nil
}

func (run *Run) aggregate(ctx context.Context) error {
	deps := run.runner.deps
	sheet, err := deps.Workbooks.ReadSheet(ctx, run.params.File)
	if err != nil {
		return err
	}
	subs, err := feedback.Parse(sheet, deps.Mapping)
	if err != nil {
		return err
	}
	res, err := feedback.Aggregate(ctx, run.roster, subs, deps.Instructors)
	if err != nil {
		return err
	}
	run.outcome.Result = res
	deps.Logger.Info(fmt.Sprintf("%d submissions, %d feedback entries, %d of %d students took part",
		res.Submissions, res.Bundles.Total(), len(res.Present()), len(res.IDs())), core.RunID(run.ID()))
	return nil
}

func (run *Run) notify(ctx context.Context) error {
	report, err := run.notifier.Notify(ctx, run.outcome.Result.Bundles, run.params.TutorialDate, run.params.Course)
	run.outcome.Report = report
	return err
}

func (run *Run) export(context.Context) error {
	res := run.outcome.Result
	fp, err := gradebook.Export(run.runner.deps.GradebookDir, res.Participation, res.IDs(), run.params.TutorialDate, run.params.Course)
	if err != nil {
		return err
	}
	run.outcome.GradesPath = fp
	return nil
}

func (run *Run) archive(context.Context) error {
	dst, err := run.runner.deps.Archiver.Archive(run.params.File, run.params.Course, run.date)
	if err != nil {
		return err
	}
	run.outcome.ArchivedTo = dst
	run.runner.deps.Logger.Info("workbook archived to "+dst, core.RunID(run.ID()))
	return nil
}
