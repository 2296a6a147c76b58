package pipeline

import (
	"context"
	"net/mail"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/peerfeedback/assets"
	"github.com/trezcool/peerfeedback/core"
	"github.com/trezcool/peerfeedback/core/archive"
	"github.com/trezcool/peerfeedback/core/feedback"
	"github.com/trezcool/peerfeedback/core/roster"
	"github.com/trezcool/peerfeedback/services/email"
	"github.com/trezcool/peerfeedback/storage/roster/inmem"
)

const term = "2024s"

// sheetReader serves the same sheet for every path that exists.
type sheetReader struct {
	sheet feedback.Sheet
}

func (r sheetReader) ReadSheet(_ context.Context, path string) (feedback.Sheet, error) {
	if _, err := os.Stat(path); err != nil {
		return feedback.Sheet{}, err
	}
	return r.sheet, nil
}

type fixture struct {
	runner   *Runner
	mailer   *emailsvc.ConsoleService
	workbook string
	dir      string
}

func formRow(evaluator, code string, fields ...string) []string {
	row := make([]string, 14)
	row[3] = evaluator
	row[10] = code
	copy(row[11:], fields)
	return row
}

func setup(t *testing.T, rows ...[]string) fixture {
	t.Helper()
	dir := t.TempDir()

	rosters := inmemroster.NewRepository()
	rosters.Put(term, "212",
		roster.Entry{StudentID: "111", Email: "a@x.edu", ShortCode: "001"},
		roster.Entry{StudentID: "222", Email: "b@x.edu", ShortCode: "002"},
	)

	workbook := filepath.Join(dir, "inbox", "form.xlsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(workbook), 0o755))
	require.NoError(t, os.WriteFile(workbook, []byte("xlsx"), 0o644))

	tmpls, err := core.LoadTemplates(assets.EmailTemplates(), "Peer Feedback", true)
	require.NoError(t, err)

	mailer := emailsvc.NewConsoleServiceMock(mail.Address{Address: "noreply@x.edu"})
	runner, err := NewRunner(Deps{
		Rosters:       rosters,
		Workbooks:     sheetReader{sheet: feedback.Sheet{Rows: append([][]string{{"header"}}, rows...)}},
		Mapping:       feedback.DefaultMapping(),
		Term:          term,
		Mailer:        mailer,
		Templates:     tmpls,
		SubjectPrefix: "CHEM",
		GradebookDir:  filepath.Join(dir, "gradebook_upload"),
		Archiver:      archive.New(filepath.Join(dir, "archive"), term),
	})
	require.NoError(t, err)
	return fixture{runner: runner, mailer: mailer, workbook: workbook, dir: dir}
}

func TestNewRunner(t *testing.T) {
	_, err := NewRunner(Deps{})
	assert.Error(t, err)

	fx := setup(t)
	deps := fx.runner.deps

	// readers held by value are valid dependencies
	deps.Workbooks = sheetReader{}
	require.NotPanics(t, func() { _, err = NewRunner(deps) })
	assert.NoError(t, err)

	deps.Workbooks = nil
	_, err = NewRunner(deps)
	assert.EqualError(t, err, "parameter validation failed: Workbooks is required")

	deps.Workbooks = sheetReader{}
	deps.Mapping = feedback.FieldMapping{EvaluatorEmail: "D"}
	_, err = NewRunner(deps)
	assert.Error(t, err, "a mapping without targets")
}

func TestRunner_Plan(t *testing.T) {
	fx := setup(t)

	tests := []struct {
		name      string
		params    Params
		wantErr   bool
		wantSteps []string
	}{
		{
			name:      "live run",
			params:    Params{TutorialDate: "Jan 05", Course: "212", File: fx.workbook},
			wantSteps: []string{StepLoadRoster, StepAggregate, StepNotify, StepExport, StepArchive},
		},
		{
			name:      "test run",
			params:    Params{TutorialDate: "jan 5", Course: " 212 ", TestRun: true, TestAddress: "me@x.edu", File: fx.workbook},
			wantSteps: []string{StepLoadRoster, StepAggregate, StepNotify, StepExport},
		},
		{name: "bad date", params: Params{TutorialDate: "2024-01-05", Course: "212", File: fx.workbook}, wantErr: true},
		{name: "no course", params: Params{TutorialDate: "Jan 05", Course: "  ", File: fx.workbook}, wantErr: true},
		{name: "no file", params: Params{TutorialDate: "Jan 05", Course: "212"}, wantErr: true},
		{name: "test run without address", params: Params{TutorialDate: "Jan 05", Course: "212", TestRun: true, File: fx.workbook}, wantErr: true},
		{name: "bad test address", params: Params{TutorialDate: "Jan 05", Course: "212", TestRun: true, TestAddress: "me", File: fx.workbook}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := fx.runner.Plan(tt.params)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSteps, run.Steps())
			assert.NotEmpty(t, run.ID())
			assert.Equal(t, StepLoadRoster, run.Pending())
			assert.Equal(t, 10, run.Percent())
			assert.False(t, run.Done())
		})
	}
}

func TestRunner_Run_testRun(t *testing.T) {
	fx := setup(t, formRow("c@x.edu", "001", "5", "4", "good"))

	var progress []int
	outcome, err := fx.runner.Run(context.Background(), Params{
		TutorialDate: "Jan 05",
		Course:       "212",
		TestRun:      true,
		TestAddress:  "me@x.edu",
		File:         fx.workbook,
	}, func(_ string, percent int) { progress = append(progress, percent) })
	require.NoError(t, err)

	assert.Equal(t, []int{10, 20, 50, 70, 100}, progress)
	assert.Equal(t, feedback.Participation{"111": 1, "222": 0}, outcome.Result.Participation)
	assert.Equal(t, []string{"a@x.edu"}, outcome.Report.Recipients)
	assert.Equal(t, []string{"me@x.edu"}, outcome.Report.SentTo)

	sent := fx.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"me@x.edu"}, sent[0].Recipients())

	data, err := os.ReadFile(outcome.GradesPath)
	require.NoError(t, err)
	assert.Equal(t, "OrgDefinedId,Jan 05 Points Grade,End-of-Line Indicator\r\n111,1,\n222,0,\n", string(data))

	// test runs leave the workbook in place
	assert.Empty(t, outcome.ArchivedTo)
	assert.FileExists(t, fx.workbook)
}

func TestRunner_Run_noFeedback(t *testing.T) {
	fx := setup(t)

	outcome, err := fx.runner.Run(context.Background(), Params{TutorialDate: "Jan 05", Course: "212", File: fx.workbook}, nil)
	require.NoError(t, err)

	assert.Empty(t, fx.mailer.Sent())
	assert.Empty(t, outcome.Report.SentTo)

	data, err := os.ReadFile(outcome.GradesPath)
	require.NoError(t, err)
	assert.Equal(t, "OrgDefinedId,Jan 05 Points Grade,End-of-Line Indicator\r\n111,0,\n222,0,\n", string(data))

	assert.Equal(t, filepath.Join(fx.dir, "archive", "2024s-212-peer_feedback-01-05.xlsx"), outcome.ArchivedTo)
	assert.FileExists(t, outcome.ArchivedTo)
	assert.NoFileExists(t, fx.workbook)
}

func TestRunner_Run_rowError(t *testing.T) {
	fx := setup(t,
		formRow("c@x.edu", "001", "5", "4", "good"),
		formRow("d@x.edu", "12x", "5", "4", "good"),
	)

	outcome, err := fx.runner.Run(context.Background(), Params{TutorialDate: "Jan 05", Course: "212", File: fx.workbook}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, feedback.ErrCodeFormat)

	var rowErr *feedback.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Row)

	// nothing happened past the failing step
	assert.Empty(t, fx.mailer.Sent())
	assert.Empty(t, outcome.GradesPath)
	assert.FileExists(t, fx.workbook)
}

func TestRunner_Run_missingRoster(t *testing.T) {
	fx := setup(t)
	_, err := fx.runner.Run(context.Background(), Params{TutorialDate: "Jan 05", Course: "999", File: fx.workbook}, nil)
	assert.ErrorIs(t, err, roster.ErrNotFound)
}

func TestRun_Next(t *testing.T) {
	fx := setup(t, formRow("c@x.edu", "002", "3", "3", "ok"))
	run, err := fx.runner.Plan(Params{TutorialDate: "Feb 2", Course: "212", TestRun: true, TestAddress: "me@x.edu", File: fx.workbook})
	require.NoError(t, err)

	var seen []string
	for !run.Done() {
		seen = append(seen, run.Pending())
		require.NoError(t, run.Next(context.Background()))
	}
	assert.Equal(t, run.Steps(), seen)
	assert.Equal(t, 100, run.Percent())
	assert.Empty(t, run.Pending())
	assert.NoError(t, run.Next(context.Background()))
	assert.Equal(t, feedback.Participation{"111": 0, "222": 1}, run.Outcome().Result.Participation)
}

func TestRunner_Check(t *testing.T) {
	fx := setup(t, formRow("c@x.edu", "001", "5", "4", "good"))

	res, err := fx.runner.Check(context.Background(), "212", fx.workbook)
	require.NoError(t, err)
	assert.Equal(t, []string{"111"}, res.Present())
	assert.Empty(t, fx.mailer.Sent())
	assert.FileExists(t, fx.workbook)

	_, err = fx.runner.Check(context.Background(), "", fx.workbook)
	assert.True(t, core.IsValidation(err))
}

func TestRunner_Check_submitterID(t *testing.T) {
	// b@x.edu assesses 001 and types their own id in column H
	row := formRow("b@x.edu", "001", "5", "4", "good")
	row[7] = "222"
	fx := setup(t, row)

	res, err := fx.runner.Check(context.Background(), "212", fx.workbook)
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222"}, res.Present())
	assert.Empty(t, res.Absent())
}
