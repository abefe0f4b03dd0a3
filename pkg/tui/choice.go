package tui

import (
	"fmt"
	"strings"

	"github.com/propertyshodh/shodh/pkg/catalog"
)

// renderChoices renders a numbered single-select list with the cursor row
// highlighted.
func renderChoices(opts []catalog.Choice, cursor int) string {
	var b strings.Builder
	for i, o := range opts {
		prefix := "  "
		if i == cursor {
			prefix = "> "
		}
		num := "  "
		if i < 9 {
			num = fmt.Sprintf("%d.", i+1)
		}
		label := o.Label
		if label == "" {
			label = o.Val()
		}
		line := fmt.Sprintf("%s%s %s", prefix, keyStyle.Render(num), label)
		if i == cursor {
			line = stepCurrent.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderChips renders multi-select options with their pending state.
func renderChips(opts []catalog.Choice, pending []string, cursor int) string {
	on := make(map[string]bool, len(pending))
	for _, p := range pending {
		on[p] = true
	}
	var b strings.Builder
	for i, o := range opts {
		prefix := "  "
		if i == cursor {
			prefix = "> "
		}
		glyph, style := GlyphOpen, chipOff
		if on[o.Val()] {
			glyph, style = GlyphChecked, chipOn
		}
		line := prefix + style.Render(glyph+" "+o.Label)
		if i == cursor {
			line = stepCurrent.Render(prefix) + style.Underline(true).Render(glyph+" "+o.Label)
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "\n%s", keyDescStyle.Render(fmt.Sprintf("%d selected", len(pending))))
	return b.String()
}
