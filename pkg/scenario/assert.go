package scenario

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Evaluate checks every expectation against run. Map-valued
// expectations are checked in key order so reports are stable.
func Evaluate(exp *Expectations, run *Run) []AssertionResult {
	var results []AssertionResult

	if exp.ExpectedOutcome != "" {
		results = append(results, evalOutcome(exp.ExpectedOutcome, run.Outcome))
	}
	for _, key := range sortedKeys(exp.ExpectedAnswers) {
		results = append(results, evalValue("expected_answer", key, exp.ExpectedAnswers[key], run.Answers))
	}
	for _, key := range exp.AbsentAnswers {
		results = append(results, evalAbsent(key, run.Answers))
	}
	for _, key := range sortedKeys(exp.ExpectedRecord) {
		results = append(results, evalValue("expected_record", key, exp.ExpectedRecord[key], run.Record))
	}
	for _, id := range exp.MustReach {
		results = append(results, evalMustReach(id, run.Visited))
	}
	for _, id := range exp.MustNotReach {
		results = append(results, evalMustNotReach(id, run.Visited))
	}
	for _, id := range exp.ExpectedRejections {
		results = append(results, evalRejection(id, run.Rejected))
	}
	return results
}

// HasFailures reports whether any assertion failed.
func HasFailures(results []AssertionResult) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

func evalOutcome(expected, actual string) AssertionResult {
	passed := expected == actual
	msg := ""
	if !passed {
		msg = fmt.Sprintf("expected outcome %q, got %q", expected, actual)
	}
	return AssertionResult{Type: "expected_outcome", Expected: expected, Actual: actual, Passed: passed, Message: msg}
}

func evalValue(kind, key, expected string, values map[string]string) AssertionResult {
	actual, ok := values[key]
	if !ok {
		return AssertionResult{
			Type: kind, Key: key, Expected: expected,
			Message: fmt.Sprintf("%q not set", key),
		}
	}
	passed, msg := compareValue(expected, actual)
	return AssertionResult{Type: kind, Key: key, Expected: expected, Actual: actual, Passed: passed, Message: msg}
}

func evalAbsent(key string, answers map[string]string) AssertionResult {
	if v, ok := answers[key]; ok {
		return AssertionResult{
			Type: "absent_answer", Key: key, Actual: v,
			Message: fmt.Sprintf("answer %q should have been cleared, got %q", key, v),
		}
	}
	return AssertionResult{Type: "absent_answer", Key: key, Passed: true}
}

// compareValue matches actual against one of three forms:
//   - Regex:   "/pattern/"
//   - Numeric: ">0", "<100", ">=1", "<=50", "==0", "!=0"
//   - Exact:   any other string
func compareValue(expected, actual string) (bool, string) {
	if len(expected) >= 2 && expected[0] == '/' && expected[len(expected)-1] == '/' {
		pattern := expected[1 : len(expected)-1]
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Sprintf("invalid regex %q: %v", pattern, err)
		}
		if re.MatchString(actual) {
			return true, ""
		}
		return false, fmt.Sprintf("value %q does not match pattern %s", actual, expected)
	}

	for _, op := range []string{">=", "<=", "!=", "==", ">", "<"} {
		if strings.HasPrefix(expected, op) {
			return compareNumeric(op, strings.TrimSpace(expected[len(op):]), actual)
		}
	}

	if expected == actual {
		return true, ""
	}
	return false, fmt.Sprintf("expected %q, got %q", expected, actual)
}

func compareNumeric(op, threshold, actual string) (bool, string) {
	tVal, tErr := strconv.ParseFloat(threshold, 64)
	aVal, aErr := strconv.ParseFloat(actual, 64)
	if tErr != nil || aErr != nil {
		return false, fmt.Sprintf("numeric comparison %s%s failed: cannot parse %q or %q as number", op, threshold, actual, threshold)
	}

	var passed bool
	switch op {
	case ">":
		passed = aVal > tVal
	case "<":
		passed = aVal < tVal
	case ">=":
		passed = aVal >= tVal
	case "<=":
		passed = aVal <= tVal
	case "==":
		passed = aVal == tVal
	case "!=":
		passed = aVal != tVal
	}
	if passed {
		return true, ""
	}
	return false, fmt.Sprintf("expected %s%s, got %q", op, threshold, actual)
}

func evalMustReach(id string, visited []string) AssertionResult {
	for _, v := range visited {
		if v == id {
			return AssertionResult{Type: "must_reach", Key: id, Passed: true}
		}
	}
	return AssertionResult{Type: "must_reach", Key: id, Message: fmt.Sprintf("step %q was not reached", id)}
}

func evalMustNotReach(id string, visited []string) AssertionResult {
	for _, v := range visited {
		if v == id {
			return AssertionResult{
				Type: "must_not_reach", Key: id,
				Message: fmt.Sprintf("step %q was reached but should not have been", id),
			}
		}
	}
	return AssertionResult{Type: "must_not_reach", Key: id, Passed: true}
}

func evalRejection(id string, rejected map[string]string) AssertionResult {
	if reason, ok := rejected[id]; ok {
		return AssertionResult{Type: "expected_rejection", Key: id, Actual: reason, Passed: true}
	}
	return AssertionResult{Type: "expected_rejection", Key: id, Message: fmt.Sprintf("no answer to %q was rejected", id)}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
