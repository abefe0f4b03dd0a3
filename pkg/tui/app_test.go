package tui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/wizard"
)

const stepperYAML = `
apiVersion: catalog/v0
meta:
  name: stepper
  title: List your property
steps:
  - id: category
    prompt: Category?
    label: Category
    kind: single-select
    required: true
    options:
      - {id: residential, label: Residential}
      - {id: commercial, label: Commercial}
  - id: amenities
    prompt: Amenities?
    label: Amenities
    kind: multi-select
    options:
      - {id: parking, label: Parking}
      - {id: lift, label: Lift}
      - {id: gym, label: Gym}
  - id: price
    prompt: Price?
    label: Price
    kind: numeric
    required: true
    rules: {gt: 0}
    message: Please enter a valid price
  - id: review
    prompt: Review your listing
    kind: derived-summary
`

func newModel(t *testing.T, submit func(context.Context, *wizard.Engine) (string, error)) Model {
	t.Helper()
	doc, err := catalog.Load(strings.NewReader(stepperYAML))
	if err != nil {
		t.Fatal(err)
	}
	cat, err := catalog.Compile(doc)
	if err != nil {
		t.Fatal(err)
	}
	return New(Config{Engine: wizard.New(cat), Submit: submit})
}

func press(m Model, msgs ...tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestStepper_FullFlow(t *testing.T) {
	var submitted map[string]any
	m := newModel(t, func(_ context.Context, e *wizard.Engine) (string, error) {
		submitted = e.Answers()
		return "rec-7", nil
	})

	m, _ = press(m, runes("2"))
	if got, _ := m.engine.Answer("category"); got != "commercial" {
		t.Fatalf("category = %v", got)
	}
	if m.stepID != "amenities" {
		t.Fatalf("step = %s, want amenities", m.stepID)
	}

	m, _ = press(m, space, down, down, space, enter)
	got, _ := m.engine.Answer("amenities")
	if !reflect.DeepEqual(got, []string{"parking", "gym"}) {
		t.Fatalf("amenities = %v", got)
	}

	m, _ = press(m, runes("abc"), enter)
	if m.stepID != "price" || m.errMsg != "Please enter a valid price" {
		t.Fatalf("step = %s, err = %q", m.stepID, m.errMsg)
	}
	m.input.SetValue("")
	m, _ = press(m, runes("4500"), enter)
	if m.stepID != "review" {
		t.Fatalf("step = %s, want review", m.stepID)
	}
	if !strings.Contains(m.View(), "Review your listing") {
		t.Error("review prompt not rendered")
	}

	m, _ = press(m, enter)
	if m.phase != phaseReview {
		t.Fatalf("phase = %d, want review", m.phase)
	}
	m, cmd := press(m, enter)
	if m.phase != phaseSubmitting || cmd == nil {
		t.Fatalf("phase = %d, cmd = %v", m.phase, cmd)
	}
	m = drain(t, m, cmd)
	if m.phase != phaseDone || m.Result().RecordID != "rec-7" {
		t.Fatalf("phase = %d, result = %+v", m.phase, m.Result())
	}
	if submitted["price"] != 4500.0 {
		t.Errorf("submitted = %v", submitted)
	}
}

// drain runs cmd, feeds its submit result back into the model and returns it.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	msgs := []tea.Msg{cmd()}
	for len(msgs) > 0 {
		msg := msgs[0]
		msgs = msgs[1:]
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				if c != nil {
					msgs = append(msgs, c())
				}
			}
			continue
		}
		if done, ok := msg.(submitDoneMsg); ok {
			next, _ := m.Update(done)
			return next.(Model)
		}
	}
	t.Fatal("submit command never finished")
	return m
}

func TestStepper_BackRestoresPreviousAnswer(t *testing.T) {
	m := newModel(t, nil)
	m, _ = press(m, down, enter)
	if m.stepID != "amenities" {
		t.Fatalf("step = %s", m.stepID)
	}
	m, _ = press(m, esc)
	if m.stepID != "category" || m.cursor != 1 {
		t.Errorf("step = %s cursor = %d, want category at 1", m.stepID, m.cursor)
	}
}

func TestStepper_SubmitFailureReturnsToReview(t *testing.T) {
	m := newModel(t, func(context.Context, *wizard.Engine) (string, error) {
		return "", errors.New("backend unavailable")
	})
	m, _ = press(m, runes("1"), enter, runes("100"), enter, enter)
	if m.phase != phaseReview {
		t.Fatalf("phase = %d", m.phase)
	}
	m, cmd := press(m, enter)
	m = drain(t, m, cmd)
	if m.phase != phaseReview || !strings.Contains(m.errMsg, "backend unavailable") {
		t.Errorf("phase = %d err = %q", m.phase, m.errMsg)
	}
	if m.Result().Err == nil {
		t.Error("result lost the error")
	}
}

func TestStepper_QuitKey(t *testing.T) {
	m := newModel(t, nil)
	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
}
