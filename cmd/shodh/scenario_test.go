package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/propertyshodh/shodh/pkg/scenario"
)

func TestPrintTestOutput(t *testing.T) {
	results := []scenario.Result{
		{Scenario: "rent-flat", Status: "passed", Outcome: &scenario.OutcomeComparison{Expected: "completed", Actual: "completed"}},
		{Scenario: "switch", Status: "failed", Assertions: []scenario.AssertionResult{
			{Type: "absent_answer", Key: "bedrooms", Message: `answer "bedrooms" should have been cleared, got "2"`},
		}},
		{Scenario: "half-done", Status: "skipped"},
	}
	out := &scenario.Output{Catalog: "property-listing", Scenarios: results, Summary: summarize(results)}

	var buf bytes.Buffer
	printTestOutput(&buf, out)
	got := buf.String()
	for _, want := range []string{"✓ rent-flat", "✗ switch", "absent_answer: answer", "○ half-done", "3 scenarios, 1 passed, 1 failed, 1 skipped"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
