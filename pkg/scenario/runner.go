package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/submit"
	"github.com/propertyshodh/shodh/pkg/wizard"
)

// Runner discovers and replays scenarios for a catalog.
type Runner struct {
	Timeout time.Duration // per scenario
}

// Info describes a discovered scenario directory.
type Info struct {
	Name    string
	Dir     string
	HasTest bool
}

// Discover finds scenario directories by convention:
// {root}/{catalog-name}/*/steps.yaml. A missing directory is not an error.
func Discover(root, catalogName string) ([]Info, error) {
	base := filepath.Join(root, catalogName)
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}

	var out []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(base, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "steps.yaml")); err != nil {
			continue
		}
		_, err := os.Stat(filepath.Join(dir, "test.yaml"))
		out = append(out, Info{Name: entry.Name(), Dir: dir, HasTest: err == nil})
	}
	return out, nil
}

// RunAll replays every scenario found under root for cat.
func (r *Runner) RunAll(cat *catalog.Catalog, root string, failFast bool) (*Output, error) {
	scenarios, err := Discover(root, cat.Name())
	if err != nil {
		return nil, err
	}
	out := &Output{Catalog: cat.Name()}
	for _, s := range scenarios {
		res := r.run(cat, s)
		out.Scenarios = append(out.Scenarios, res)
		switch res.Status {
		case "passed":
			out.Summary.Passed++
		case "failed":
			out.Summary.Failed++
		case "skipped":
			out.Summary.Skipped++
		case "error":
			out.Summary.Errors++
		}
		out.Summary.Total++
		if failFast && (res.Status == "failed" || res.Status == "error") {
			break
		}
	}
	return out, nil
}

// RunOne replays the named scenario.
func (r *Runner) RunOne(cat *catalog.Catalog, root, name string) (*Result, error) {
	scenarios, err := Discover(root, cat.Name())
	if err != nil {
		return nil, err
	}
	for _, s := range scenarios {
		if s.Name == name {
			res := r.run(cat, s)
			return &res, nil
		}
	}
	return nil, fmt.Errorf("scenario %q not found", name)
}

func (r *Runner) run(cat *catalog.Catalog, info Info) Result {
	start := time.Now()
	res := Result{Catalog: cat.Name(), Scenario: info.Name, Dir: info.Dir}
	finish := func(status, errMsg string) Result {
		res.Status, res.Error = status, errMsg
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}

	if !info.HasTest {
		return finish("skipped", "")
	}
	exp, err := LoadExpectations(filepath.Join(info.Dir, "test.yaml"))
	if err != nil {
		return finish("error", fmt.Sprintf("load test.yaml: %v", err))
	}
	script, err := LoadScript(filepath.Join(info.Dir, "steps.yaml"))
	if err != nil {
		return finish("error", fmt.Sprintf("load steps.yaml: %v", err))
	}

	ctx := context.Background()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	run, err := Replay(ctx, cat, script)
	if err != nil {
		return finish("error", fmt.Sprintf("replay: %v", err))
	}

	if exp.ExpectedOutcome != "" {
		res.Outcome = &OutcomeComparison{Expected: exp.ExpectedOutcome, Actual: run.Outcome}
	}
	res.Assertions = Evaluate(exp, run)
	if HasFailures(res.Assertions) {
		return finish("failed", "")
	}
	return finish("passed", "")
}

// Replay drives a fresh engine through script. An action naming a step
// that is not current stops the replay with an error.
func Replay(ctx context.Context, cat *catalog.Catalog, script *Script) (*Run, error) {
	eng := wizard.New(cat)
	defer eng.Close()

	run := &Run{Rejected: map[string]string{}}
	visit := func() {
		if s, ok := eng.CurrentStep(); ok {
			if n := len(run.Visited); n == 0 || run.Visited[n-1] != s.ID {
				run.Visited = append(run.Visited, s.ID)
			}
		}
	}
	visit()

	for i, a := range script.Actions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur, ok := eng.CurrentStep()
		if a.Step != "" {
			if !ok {
				return nil, fmt.Errorf("action %d: expected step %q, wizard is complete", i+1, a.Step)
			}
			if cur.ID != a.Step {
				return nil, fmt.Errorf("action %d: expected step %q, current is %q", i+1, a.Step, cur.ID)
			}
		}

		var out wizard.Outcome
		switch a.Do {
		case "back":
			eng.GoBack()
			visit()
			continue
		case "reset":
			eng.Reset()
			visit()
			continue
		case "skip":
			out = eng.SubmitAnswer("")
		case "confirm":
			out = eng.SubmitAnswer(nil)
		default:
			out = eng.SubmitAnswer(scriptValue(a.Answer))
		}
		if out.Status == wizard.Invalid && out.Step != nil {
			run.Rejected[out.Step.ID] = out.Reason
		}
		visit()
	}

	if eng.Complete() {
		run.Outcome = "completed"
	} else {
		run.Outcome = "incomplete"
	}
	answers := eng.Answers()
	run.Answers = make(map[string]string, len(answers))
	for id, v := range answers {
		run.Answers[id] = catalog.FormatValue(v)
	}
	for _, s := range eng.Steps() {
		run.Effective = append(run.Effective, s.ID)
	}
	rec, err := recordFields(submit.ToExternalRecord(cat, answers, nil))
	if err != nil {
		return nil, err
	}
	run.Record = rec
	return run, nil
}

// scriptValue turns YAML scalars into the values a front end would send:
// numbers as float64, sequences as string lists.
func scriptValue(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return v
}

// recordFields flattens a record into its JSON field names.
func recordFields(rec submit.PropertyRecord) (map[string]string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = formatJSON(v)
	}
	return out, nil
}

func formatJSON(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = formatJSON(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		data, _ := json.Marshal(x)
		return string(data)
	}
	return fmt.Sprint(v)
}
