package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/propertyshodh/shodh/pkg/catalog/builtin"
	"github.com/propertyshodh/shodh/pkg/scenario"
)

var (
	testDir      string
	testScenario string
	testJSON     bool
	testFailFast bool
	testTimeout  time.Duration
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Replay scripted scenarios against the catalog",
	Long: `Discover scenarios for the catalog, replay their answers through the
wizard and compare against test.yaml assertions.

Scenarios are discovered by convention at:
  {scenarios}/{catalog-name}/*/steps.yaml

Only scenarios with a test.yaml file are asserted. Scenarios without
test.yaml are reported as skipped.

Exit codes:
  0  all asserted scenarios passed
  1  at least one scenario failed
  2  the catalog could not be loaded (no scenarios ran)`,
	Args: cobra.NoArgs,
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	cat, err := builtin.Resolve(flagCatalog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %s: %v\n", flagCatalog, err)
		os.Exit(2)
	}
	runner := &scenario.Runner{Timeout: testTimeout}

	var output *scenario.Output
	if testScenario != "" {
		res, err := runner.RunOne(cat, testDir, testScenario)
		if err != nil {
			return err
		}
		output = &scenario.Output{Catalog: cat.Name(), Scenarios: []scenario.Result{*res}}
		output.Summary = summarize(output.Scenarios)
	} else {
		output, err = runner.RunAll(cat, testDir, testFailFast)
		if err != nil {
			return err
		}
	}

	if testJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output); err != nil {
			return err
		}
	} else {
		printTestOutput(os.Stdout, output)
	}
	if output.Summary.Failed > 0 || output.Summary.Errors > 0 {
		os.Exit(1)
	}
	return nil
}

func summarize(results []scenario.Result) scenario.Summary {
	var s scenario.Summary
	for _, r := range results {
		s.Total++
		switch r.Status {
		case "passed":
			s.Passed++
		case "failed":
			s.Failed++
		case "skipped":
			s.Skipped++
		case "error":
			s.Errors++
		}
	}
	return s
}

func printTestOutput(w io.Writer, output *scenario.Output) {
	fmt.Fprintf(w, "\n  %s\n", output.Catalog)
	for _, s := range output.Scenarios {
		switch s.Status {
		case "passed":
			outcome := ""
			if s.Outcome != nil {
				outcome = s.Outcome.Actual
			}
			fmt.Fprintf(w, "    ✓ %-30s (%s)  %dms\n", s.Scenario, outcome, s.DurationMs)
		case "failed":
			outcome := ""
			if s.Outcome != nil {
				outcome = fmt.Sprintf("expected: %s, got: %s", s.Outcome.Expected, s.Outcome.Actual)
			}
			fmt.Fprintf(w, "    ✗ %-30s (%s)  %dms\n", s.Scenario, outcome, s.DurationMs)
			for _, a := range s.Assertions {
				if !a.Passed {
					fmt.Fprintf(w, "        %s: %s\n", a.Type, a.Message)
				}
			}
		case "skipped":
			fmt.Fprintf(w, "    ○ %-30s (no test.yaml)  %dms\n", s.Scenario, s.DurationMs)
		case "error":
			fmt.Fprintf(w, "    ✗ %-30s ERROR: %s\n", s.Scenario, s.Error)
		}
	}
	fmt.Fprintf(w, "\n  %d scenarios, %d passed, %d failed, %d skipped\n",
		output.Summary.Total, output.Summary.Passed, output.Summary.Failed, output.Summary.Skipped)
	if output.Summary.Errors > 0 {
		fmt.Fprintf(w, "  %d errors\n", output.Summary.Errors)
	}
}
