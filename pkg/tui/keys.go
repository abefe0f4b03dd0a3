package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all TUI key bindings.
type keyMap struct {
	Advance key.Binding
	Back    key.Binding
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Quick   key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Advance: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "next"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle"),
	),
	Quick: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "quick pick"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

func hint(k, desc string) string {
	return keyStyle.Render(k) + keyDescStyle.Render(":"+desc)
}

// keyBarText renders the context-sensitive key hint string.
func keyBarText(p phase, kind string) string {
	switch p {
	case phaseReview:
		return hint("enter", "submit") + "  " + hint("esc", "back") + "  " + hint("ctrl+c", "quit")
	case phaseSubmitting:
		return hint("ctrl+c", "quit")
	case phaseDone:
		return hint("enter", "exit")
	}
	switch kind {
	case "single-select":
		return hint("↑↓", "select") + "  " + hint("enter", "choose") + "  " +
			hint("1-9", "quick") + "  " + hint("esc", "back") + "  " + hint("ctrl+c", "quit")
	case "multi-select":
		return hint("↑↓", "move") + "  " + hint("space", "toggle") + "  " +
			hint("enter", "continue") + "  " + hint("esc", "back") + "  " + hint("ctrl+c", "quit")
	}
	return hint("enter", "next") + "  " + hint("esc", "back") + "  " + hint("ctrl+c", "quit")
}
