// Package summary renders the review screen shown before submission.
package summary

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/propertyshodh/shodh/pkg/catalog"
)

// Skipped is shown for optional steps left blank.
const Skipped = "(skipped)"

// Row is one reviewed answer.
type Row struct {
	ID    string
	Label string
	Value string
}

// Rows lists the answered and skipped visible steps in catalog order.
// Select values are shown by their option labels.
func Rows(cat *catalog.Catalog, answers catalog.Answers) []Row {
	effective := cat.Prune(answers)
	var rows []Row
	for _, s := range cat.Compute(effective) {
		if s.Kind == catalog.KindDerivedSummary {
			continue
		}
		label := s.Label
		if label == "" {
			label = s.ID
		}
		rows = append(rows, Row{ID: s.ID, Label: label, Value: display(s, effective)})
	}
	return rows
}

func display(s *catalog.Step, answers catalog.Answers) string {
	v, ok := answers[s.ID]
	if !ok || catalog.IsEmpty(v) {
		return Skipped
	}
	if !s.Kind.IsSelect() {
		return catalog.FormatValue(v)
	}
	opts := s.Options(answers)
	labelOf := func(val string) string {
		for _, o := range opts {
			if o.Val() == val {
				return o.Label
			}
		}
		return val
	}
	switch val := v.(type) {
	case string:
		return labelOf(val)
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = labelOf(item)
		}
		return strings.Join(out, ", ")
	}
	return catalog.FormatValue(v)
}

// Table renders rows as two aligned columns. Values wider than the space
// left by width are truncated; width <= 0 disables truncation.
func Table(rows []Row, width int) string {
	labelW := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r.Label); w > labelW {
			labelW = w
		}
	}
	valueW := width - labelW - 3
	var b strings.Builder
	for _, r := range rows {
		v := r.Value
		if width > 0 && valueW > 1 {
			v = runewidth.Truncate(v, valueW, "…")
		}
		fmt.Fprintf(&b, "%s : %s\n", runewidth.FillRight(r.Label, labelW), v)
	}
	return b.String()
}

// Markdown renders rows as a markdown table.
func Markdown(title string, rows []Row) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "## %s\n\n", title)
	}
	b.WriteString("| Field | Answer |\n|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", escape(r.Label), escape(r.Value))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

// Render is Table over Rows.
func Render(cat *catalog.Catalog, answers catalog.Answers, width int) string {
	return Table(Rows(cat, answers), width)
}
