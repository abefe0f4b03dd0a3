package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/propertyshodh/shodh/pkg/catalog"
)

type stepStatus int

const (
	statusPending stepStatus = iota
	statusCurrent
	statusAnswered
)

// stepInfo holds the display state for one step of the effective catalog.
type stepInfo struct {
	ID     string
	Label  string
	Status stepStatus
}

// stepsPanel renders the progress list beside the question.
type stepsPanel struct {
	steps  []stepInfo
	cursor int
	width  int
	height int
	offset int
}

// SetSteps rebuilds the list from the engine's current view.
func (p *stepsPanel) SetSteps(steps []*catalog.Step, index int, answers catalog.Answers) {
	p.steps = make([]stepInfo, len(steps))
	for i, s := range steps {
		label := s.Label
		if label == "" {
			label = s.ID
		}
		st := statusPending
		if _, ok := answers[s.ID]; ok {
			st = statusAnswered
		}
		if i == index {
			st = statusCurrent
		}
		p.steps[i] = stepInfo{ID: s.ID, Label: label, Status: st}
	}
	p.cursor = index
	p.ensureVisible()
}

func (p *stepsPanel) ensureVisible() {
	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
}

// View renders the step list panel.
func (p *stepsPanel) View() string {
	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}
	end := p.offset + visible
	if end > len(p.steps) {
		end = len(p.steps)
	}

	var lines []string
	for i := p.offset; i < end; i++ {
		step := p.steps[i]
		var glyph string
		var style lipgloss.Style
		switch step.Status {
		case statusCurrent:
			glyph, style = GlyphCurrent, stepCurrent
		case statusAnswered:
			glyph, style = GlyphAnswered, stepAnswered
		default:
			glyph, style = GlyphPending, stepNormal
		}
		maxLabel := p.width - 8
		if maxLabel < 4 {
			maxLabel = 4
		}
		label := runewidth.Truncate(step.Label, maxLabel, "…")
		lines = append(lines, style.Render(fmt.Sprintf(" %s %2d. %s", glyph, i+1, label)))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}

	return panelBorder.Width(p.width).Height(p.height).Render(
		panelTitle.Render("Steps") + "\n" + strings.Join(lines, "\n"),
	)
}
