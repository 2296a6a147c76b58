// Package tui is the terminal form of the feedback processor.
//
// The form collects the run parameters, then executes the pipeline one step
// per message so the progress bar moves between phases. Errors are shown in
// the status line and the form is reset for a new attempt.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trezcool/peerfeedback/core/pipeline"
)

// form fields, in focus order
const (
	fieldDate = iota
	fieldCourse
	fieldTestRun
	fieldTestEmail
	fieldFile
	fieldSubmit
	fieldCount
)

var stepTitle = cases.Title(language.English)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle  = lipgloss.NewStyle().Width(28).Foreground(lipgloss.Color("#AAAAAA"))
	focusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5BEF8D"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	buttonStyle = lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444"))
)

type (
	// Planner prepares pipeline runs; *pipeline.Runner is one.
	Planner interface {
		Plan(params pipeline.Params) (*pipeline.Run, error)
	}

	// Defaults pre-fill the form.
	Defaults struct {
		TestAddress string
		File        string
	}

	stepDoneMsg struct {
		err error
	}

	Model struct {
		ctx      context.Context
		planner  Planner
		defaults Defaults

		inputs  [fieldCount]textinput.Model // only text fields are used
		testRun bool
		focus   int

		progress progress.Model
		percent  float64
		status   string
		failed   bool
		run      *pipeline.Run
	}
)

func New(ctx context.Context, planner Planner, defaults Defaults) Model {
	m := Model{
		ctx:      ctx,
		planner:  planner,
		defaults: defaults,
		progress: progress.New(progress.WithDefaultGradient()),
	}
	m.progress.Width = 40

	placeholders := map[int]string{
		fieldDate:      "Jan 05",
		fieldCourse:    "212",
		fieldTestEmail: "you@example.com",
		fieldFile:      "/path/to/feedback.xlsx",
	}
	for idx, ph := range placeholders {
		ti := textinput.New()
		ti.Placeholder = ph
		ti.Prompt = ""
		ti.CharLimit = 512
		ti.Width = 40
		m.inputs[idx] = ti
	}
	m.inputs[fieldTestEmail].SetValue(defaults.TestAddress)
	m.inputs[fieldFile].SetValue(defaults.File)
	m.inputs[fieldDate].Focus()
	return m
}

// Run shows the form until the user quits.
func Run(ctx context.Context, runner *pipeline.Runner, defaults Defaults) error {
	p := tea.NewProgram(New(ctx, runner, defaults), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func isText(field int) bool {
	return field == fieldDate || field == fieldCourse || field == fieldTestEmail || field == fieldFile
}

func (m Model) visible(field int) bool {
	return field != fieldTestEmail || m.testRun
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	if isText(m.focus) {
		m.inputs[m.focus].Blur()
	}
	for {
		m.focus = (m.focus + delta + fieldCount) % fieldCount
		if m.visible(m.focus) {
			break
		}
	}
	if isText(m.focus) {
		return m.inputs[m.focus].Focus()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.running() {
			return m, nil // the form is locked during a run
		}
		switch msg.Type {
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			return m, m.moveFocus(1)
		case tea.KeyShiftTab, tea.KeyUp:
			return m, m.moveFocus(-1)
		case tea.KeyEnter:
			if m.focus == fieldSubmit {
				return m.start()
			}
			return m, m.moveFocus(1)
		case tea.KeySpace:
			if m.focus == fieldTestRun {
				m.testRun = !m.testRun
				return m, nil
			}
		}
		if isText(m.focus) {
			var cmd tea.Cmd
			m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
			return m, cmd
		}
		return m, nil

	case stepDoneMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		if m.run.Done() {
			m.percent = 1
			m.status = "Process completed successfully!"
			m.failed = false
			m.run = nil
			m.reset()
			return m, nil
		}
		m.percent = float64(m.run.Percent()) / 100
		m.status = stepTitle.String(m.run.Pending()) + "..."
		return m, m.nextStep()
	}
	return m, nil
}

func (m Model) running() bool { return m.run != nil }

func (m Model) params() pipeline.Params {
	p := pipeline.Params{
		TutorialDate: m.inputs[fieldDate].Value(),
		Course:       m.inputs[fieldCourse].Value(),
		TestRun:      m.testRun,
		File:         m.inputs[fieldFile].Value(),
	}
	if m.testRun {
		p.TestAddress = m.inputs[fieldTestEmail].Value()
	}
	return p
}

func (m Model) start() (tea.Model, tea.Cmd) {
	m.status = "Accessing files..."
	m.failed = false
	m.percent = 0
	run, err := m.planner.Plan(m.params())
	if err != nil {
		m.fail(err)
		return m, nil
	}
	m.run = run
	m.status = "Processing started..."
	m.percent = float64(run.Percent()) / 100
	return m, m.nextStep()
}

// nextStep executes one pipeline step and reports back with a stepDoneMsg.
func (m Model) nextStep() tea.Cmd {
	run, ctx := m.run, m.ctx
	return func() tea.Msg {
		return stepDoneMsg{err: run.Next(ctx)}
	}
}

func (m *Model) fail(err error) {
	m.status = "Error: " + err.Error()
	m.failed = true
	m.percent = 0
	m.run = nil
	m.reset()
}

// reset clears the test run toggle so every live run is a deliberate choice.
func (m *Model) reset() {
	m.testRun = false
	if strings.TrimSpace(m.inputs[fieldTestEmail].Value()) == "" {
		m.inputs[fieldTestEmail].SetValue(m.defaults.TestAddress)
	}
	if m.focus == fieldTestEmail {
		m.inputs[fieldTestEmail].Blur()
		m.focus = fieldTestRun
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Feedback Processor"))
	b.WriteString("\n\n")

	row := func(field int, label, value string) {
		l := labelStyle.Render(label)
		if m.focus == field {
			l = focusStyle.Render(labelStyle.Render(label))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, l, value))
		b.WriteString("\n")
	}

	row(fieldDate, "Tutorial Date (e.g., Jan 01)", m.inputs[fieldDate].View())
	row(fieldCourse, "Course Number", m.inputs[fieldCourse].View())
	check := "[ ]"
	if m.testRun {
		check = "[x]"
	}
	row(fieldTestRun, "Is Test Run?", check)
	if m.testRun {
		row(fieldTestEmail, "Test Run Email", m.inputs[fieldTestEmail].View())
	}
	row(fieldFile, "XLSX File", m.inputs[fieldFile].View())

	b.WriteString("\n")
	button := buttonStyle.Render("Process Feedback")
	if m.focus == fieldSubmit {
		button = buttonStyle.BorderForeground(lipgloss.Color("#5B8DEF")).Render("Process Feedback")
	}
	b.WriteString(button)
	b.WriteString("\n\n")

	switch {
	case m.failed:
		b.WriteString(errorStyle.Render(m.status))
	case m.status != "" && !m.running() && m.percent == 1:
		b.WriteString(okStyle.Render(m.status))
	default:
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(m.percent))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("tab: next field • space: toggle • enter: submit • esc: quit"))
	return b.String()
}
