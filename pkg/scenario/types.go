package scenario

// Result captures the outcome of running one scenario against its test.yaml.
type Result struct {
	Catalog    string             `json:"catalog"`
	Scenario   string             `json:"scenario"`
	Dir        string             `json:"dir"`
	Status     string             `json:"status"` // passed, failed, skipped, error
	DurationMs int64              `json:"duration_ms"`
	Outcome    *OutcomeComparison `json:"outcome,omitempty"`
	Assertions []AssertionResult  `json:"assertions"`
	Error      string             `json:"error,omitempty"`
}

// OutcomeComparison pairs expected and actual outcome values.
type OutcomeComparison struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// AssertionResult is the outcome of a single check.
type AssertionResult struct {
	Type     string `json:"type"` // expected_outcome, expected_answer, absent_answer, expected_record, must_reach, must_not_reach, expected_rejection
	Key      string `json:"key,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
}

// Summary aggregates results across scenarios.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Output is the JSON document printed by shodh test --json.
type Output struct {
	Catalog   string   `json:"catalog"`
	Scenarios []Result `json:"scenarios"`
	Summary   Summary  `json:"summary"`
}

// Run holds what a replay observed.
type Run struct {
	Outcome   string            // completed or incomplete
	Visited   []string          // steps that were current, in order
	Effective []string          // final effective step list
	Answers   map[string]string // formatted committed answers
	Record    map[string]string // formatted record fields
	Rejected  map[string]string // step id -> last rejection reason
}
