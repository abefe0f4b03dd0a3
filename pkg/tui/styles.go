// Package tui implements the terminal stepper for the listing wizard. It
// drives a wizard.Engine one step at a time: choice lists, option chips,
// text and numeric input, then a review screen before submission.
package tui

import "github.com/charmbracelet/lipgloss"

// Step glyphs convey progress without relying on color alone.
const (
	GlyphPending  = "○"
	GlyphCurrent  = "▸"
	GlyphAnswered = "✓"
	GlyphChecked  = "◉"
	GlyphOpen     = "◯"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

// --- Header styles ---

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var variantBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorYellow).
	Padding(0, 1)

// --- Step list styles ---

var (
	stepNormal = lipgloss.NewStyle().
			Foreground(colorWhite)

	stepCurrent = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	stepAnswered = lipgloss.NewStyle().
			Foreground(colorGreen)
)

// --- Panel styles ---

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)

	questionBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(1, 2)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	helpTextStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	chipOn = lipgloss.NewStyle().
		Foreground(colorGreen).
		Bold(true)

	chipOff = lipgloss.NewStyle().
		Foreground(colorWhite)
)

// --- Key bar styles ---

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	keyBarStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// --- Banners ---

var doneBannerStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorGreen).
	Foreground(colorGreen).
	Bold(true).
	Padding(0, 2).
	Align(lipgloss.Center)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)
)
