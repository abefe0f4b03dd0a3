package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/localize"
	"github.com/propertyshodh/shodh/pkg/wizard"
)

// --- Tea messages ---

// submitDoneMsg is sent once the submit callback returns.
type submitDoneMsg struct {
	id  string
	err error
}

type phase int

const (
	phaseAsking phase = iota
	phaseReview
	phaseSubmitting
	phaseDone
)

// Config holds the parameters needed to launch the TUI.
type Config struct {
	Engine    *wizard.Engine
	Locale    string
	Localizer localize.Localizer
	// Submit runs after the user confirms the review screen. Without it the
	// stepper exits as soon as the review is confirmed.
	Submit func(ctx context.Context, e *wizard.Engine) (string, error)
}

// Result is what the stepper reports on exit.
type Result struct {
	Completed bool
	RecordID  string
	Err       error
}

// Model is the top-level Bubble Tea model for the stepper.
type Model struct {
	engine *wizard.Engine
	submit func(ctx context.Context, e *wizard.Engine) (string, error)
	locale string
	loc    localize.Localizer

	input   textinput.Model
	spinner spinner.Model
	steps   stepsPanel

	phase  phase
	stepID string
	prompt string
	cursor int
	errMsg string
	warn   string

	recordID  string
	submitErr error

	width  int
	height int
}

// New builds the model for cfg.Engine.
func New(cfg Config) Model {
	ti := textinput.New()
	ti.CharLimit = 2000
	ti.Width = 60
	ti.Prompt = "› "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		engine:  cfg.Engine,
		submit:  cfg.Submit,
		locale:  cfg.Locale,
		loc:     cfg.Localizer,
		input:   ti,
		spinner: sp,
		steps:   stepsPanel{width: 28, height: 20},
		width:   80,
		height:  24,
	}
	m.sync()
	return m
}

// Run starts the stepper and blocks until the user exits.
func Run(cfg Config) (Result, error) {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Result{}, err
	}
	return final.(Model).Result(), nil
}

// Result reports how the session ended.
func (m Model) Result() Result {
	return Result{
		Completed: m.engine.Complete(),
		RecordID:  m.recordID,
		Err:       m.submitErr,
	}
}

// Init focuses the text input if the first step needs it.
func (m Model) Init() tea.Cmd {
	if m.input.Focused() {
		return textinput.Blink
	}
	return nil
}

// sync aligns the view state with the engine's current step.
func (m *Model) sync() {
	m.collectWarnings()
	s, ok := m.engine.CurrentStep()
	m.steps.SetSteps(m.engine.Steps(), m.engine.Index(), m.engine.Answers())
	if !ok {
		if m.phase == phaseAsking {
			m.phase = phaseReview
		}
		m.stepID = ""
		m.input.Blur()
		return
	}
	m.phase = phaseAsking
	if s.ID == m.stepID {
		return
	}
	m.stepID = s.ID
	m.prompt = m.localizedPrompt(s)
	m.errMsg = ""
	m.cursor = 0

	current, _ := m.engine.Answer(s.ID)
	switch s.Kind {
	case catalog.KindSingleSelect:
		for i, o := range m.engine.Options() {
			if o.Val() == current {
				m.cursor = i
			}
		}
		m.input.Blur()
	case catalog.KindMultiSelect, catalog.KindDerivedSummary:
		m.input.Blur()
	default:
		m.input.SetValue(catalog.FormatValue(current))
		m.input.Placeholder = s.Placeholder
		m.input.CursorEnd()
		m.input.Focus()
	}
}

func (m *Model) localizedPrompt(s *catalog.Step) string {
	p := s.PromptFor(m.locale)
	if p == s.Prompt && m.loc != nil {
		p = localize.BestEffort(context.Background(), m.loc, p, m.locale, 300*time.Millisecond)
	}
	return p
}

func (m *Model) collectWarnings() {
	for _, w := range m.engine.Warnings() {
		m.warn = "draft not saved: " + w.Err.Error()
	}
}

// Update handles messages and key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = m.questionWidth() - 8
		m.steps.height = msg.Height - 4
		return m, nil

	case submitDoneMsg:
		m.recordID, m.submitErr = msg.id, msg.err
		if msg.err != nil {
			m.phase = phaseReview
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.phase = phaseDone
		return m, nil

	case spinner.TickMsg:
		if m.phase != phaseSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		switch m.phase {
		case phaseReview:
			return m.updateReview(msg)
		case phaseSubmitting:
			return m, nil
		case phaseDone:
			if key.Matches(msg, keys.Advance) {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.updateStep(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s, ok := m.engine.CurrentStep()
	if !ok {
		m.sync()
		return m, nil
	}
	if key.Matches(msg, keys.Back) {
		if m.engine.GoBack() {
			m.sync()
		}
		return m, nil
	}

	switch s.Kind {
	case catalog.KindSingleSelect:
		opts := m.engine.Options()
		switch {
		case key.Matches(msg, keys.Up):
			m.moveCursor(-1, len(opts))
		case key.Matches(msg, keys.Down):
			m.moveCursor(1, len(opts))
		case key.Matches(msg, keys.Quick):
			if idx := int(msg.String()[0] - '1'); idx < len(opts) {
				m.cursor = idx
				return m.apply(m.engine.SubmitAnswer(opts[idx].Val()))
			}
		case key.Matches(msg, keys.Advance):
			if len(opts) == 0 {
				m.errMsg = "No options available"
				return m, nil
			}
			return m.apply(m.engine.SubmitAnswer(opts[m.cursor].Val()))
		}
		return m, nil

	case catalog.KindMultiSelect:
		opts := m.engine.Options()
		switch {
		case key.Matches(msg, keys.Up):
			m.moveCursor(-1, len(opts))
		case key.Matches(msg, keys.Down):
			m.moveCursor(1, len(opts))
		case key.Matches(msg, keys.Toggle):
			if m.cursor < len(opts) {
				m.toggle(opts[m.cursor].Val())
			}
		case key.Matches(msg, keys.Quick):
			if idx := int(msg.String()[0] - '1'); idx < len(opts) {
				m.cursor = idx
				m.toggle(opts[idx].Val())
			}
		case key.Matches(msg, keys.Advance):
			return m.apply(m.engine.ConfirmMultiSelect())
		}
		return m, nil

	case catalog.KindDerivedSummary:
		if key.Matches(msg, keys.Advance) {
			return m.apply(m.engine.SubmitAnswer(nil))
		}
		return m, nil
	}

	if key.Matches(msg, keys.Advance) {
		return m.apply(m.engine.SubmitAnswer(m.input.Value()))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) moveCursor(delta, n int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > n-1 {
		m.cursor = n - 1
	}
}

func (m *Model) toggle(v string) {
	if err := m.engine.ToggleOption(v); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
}

func (m Model) apply(out wizard.Outcome) (tea.Model, tea.Cmd) {
	if out.Status == wizard.Invalid {
		m.errMsg = out.Reason
		m.collectWarnings()
		return m, nil
	}
	m.errMsg = ""
	m.sync()
	if m.input.Focused() {
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		if m.engine.GoBack() {
			m.phase = phaseAsking
			m.stepID = ""
			m.sync()
		}
		return m, nil
	case key.Matches(msg, keys.Advance):
		if m.submit == nil {
			m.phase = phaseDone
			return m, tea.Quit
		}
		m.phase = phaseSubmitting
		m.errMsg = ""
		return m, tea.Batch(m.spinner.Tick, m.submitCmd())
	}
	return m, nil
}

func (m Model) submitCmd() tea.Cmd {
	submit, engine := m.submit, m.engine
	return func() tea.Msg {
		id, err := submit(context.Background(), engine)
		return submitDoneMsg{id: id, err: err}
	}
}

// --- View ---

func (m Model) showSteps() bool { return m.width >= 100 }

func (m Model) questionWidth() int {
	w := m.width - 4
	if m.showSteps() {
		w -= 32
	}
	if w < 40 {
		w = 40
	}
	return w
}

// View renders the stepper.
func (m Model) View() string {
	cat := m.engine.Catalog()
	header := headerStyle.Render(cat.Meta().Title)
	if v := cat.Meta().Variant; v != "" {
		header += " " + variantBadgeStyle.Render(v)
	}
	if steps := m.engine.Steps(); len(steps) > 0 && m.phase == phaseAsking {
		header += keyDescStyle.Render(fmt.Sprintf("  step %d of %d", m.engine.Index()+1, len(steps)))
	}

	body := questionBorder.Width(m.questionWidth()).Render(m.bodyView())
	if m.showSteps() {
		m.steps.width = 28
		if m.steps.height < 5 {
			m.steps.height = 20
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.steps.View(), " ", body)
	}

	kind := ""
	if s, ok := m.engine.CurrentStep(); ok {
		kind = string(s.Kind)
	}
	bar := keyBarStyle.Render(keyBarText(m.phase, kind))
	return lipgloss.JoinVertical(lipgloss.Left, header, body, bar)
}

func (m Model) bodyView() string {
	w := m.questionWidth() - 6
	var b strings.Builder

	switch m.phase {
	case phaseSubmitting:
		b.WriteString(m.spinner.View() + " Submitting your listing…")
		return b.String()
	case phaseDone:
		b.WriteString(doneBannerStyle.Render("Listing submitted"))
		if m.recordID != "" {
			b.WriteString("\n\n" + labelStyle.Render("Reference: ") + m.recordID)
		}
		return b.String()
	case phaseReview:
		b.WriteString(reviewView(m.engine.Catalog(), m.engine.Answers(), w))
		b.WriteString("\n\n" + promptStyle.Render("Everything look right?"))
		m.writeMessages(&b)
		return b.String()
	}

	s, ok := m.engine.CurrentStep()
	if !ok {
		return ""
	}
	b.WriteString(promptStyle.Render(m.prompt))
	if s.Help != "" {
		b.WriteString("\n" + helpTextStyle.Render(renderMarkdownWidth(s.Help, w)))
	}
	b.WriteString("\n\n")

	switch s.Kind {
	case catalog.KindSingleSelect:
		b.WriteString(renderChoices(m.engine.Options(), m.cursor))
	case catalog.KindMultiSelect:
		b.WriteString(renderChips(m.engine.Options(), m.engine.Pending(), m.cursor))
	case catalog.KindDerivedSummary:
		b.WriteString(reviewView(m.engine.Catalog(), m.engine.Answers(), w))
	default:
		b.WriteString(m.input.View())
		if s.Kind == catalog.KindImageSet {
			b.WriteString("\n" + keyDescStyle.Render("Separate several files or URLs with commas"))
		}
	}
	m.writeMessages(&b)
	return b.String()
}

func (m Model) writeMessages(b *strings.Builder) {
	if m.errMsg != "" {
		b.WriteString("\n\n" + errorStyle.Render(m.errMsg))
	}
	if m.warn != "" {
		b.WriteString("\n" + warnStyle.Render(m.warn))
	}
}
