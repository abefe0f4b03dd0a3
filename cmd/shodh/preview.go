package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/catalog/builtin"
)

var previewAnswers []string

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show which steps a set of answers makes visible",
	Long: `preview prints the effective catalog for the given answers: the steps a
user would be asked, in order, with the answers that still apply.

  shodh preview --answer category=residential --answer listing_type=rent`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := builtin.Resolve(flagCatalog)
		if err != nil {
			return err
		}
		answers, err := parseAnswers(cat, previewAnswers)
		if err != nil {
			return err
		}
		writePreview(os.Stdout, cat, answers)
		return nil
	},
}

// parseAnswers applies step=value pairs in order. Each value is normalised
// and validated the same way the wizard would.
func parseAnswers(cat *catalog.Catalog, pairs []string) (catalog.Answers, error) {
	answers := catalog.Answers{}
	for _, p := range pairs {
		id, raw, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --answer %q: expected step=value", p)
		}
		step, err := cat.Lookup(strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		v, err := step.Normalize(raw, answers)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.ID, err)
		}
		if res := step.Validate(v, answers); !res.OK {
			return nil, fmt.Errorf("%s: %s", step.ID, res.Reason)
		}
		if catalog.IsEmpty(v) {
			delete(answers, step.ID)
			continue
		}
		answers[step.ID] = v
	}
	return answers, nil
}

func writePreview(w io.Writer, cat *catalog.Catalog, answers catalog.Answers) {
	effective := cat.Prune(answers)
	for id := range answers {
		if _, ok := effective[id]; !ok {
			fmt.Fprintf(w, "  ⚠ %s no longer applies and is ignored\n", id)
		}
	}
	steps := cat.Compute(effective)
	fmt.Fprintf(w, "%s: %d steps\n", cat.Name(), len(steps))
	for i, s := range steps {
		mark := "○"
		val := ""
		if v, ok := effective[s.ID]; ok {
			mark = "✓"
			val = " = " + catalog.FormatValue(v)
		}
		indent := ""
		if s.Conditional() {
			indent = "  "
		}
		req := ""
		if s.Required {
			req = " *"
		}
		fmt.Fprintf(w, " %s %2d. %s%s [%s]%s%s\n", mark, i+1, indent, s.ID, s.Kind, req, val)
	}
}
