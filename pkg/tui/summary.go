package tui

import (
	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/summary"
)

// reviewView renders the answers as a markdown table through glamour.
func reviewView(cat *catalog.Catalog, answers catalog.Answers, width int) string {
	md := summary.Markdown(cat.Meta().Title, summary.Rows(cat, answers))
	return renderMarkdownWidth(md, width)
}
