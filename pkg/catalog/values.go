package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize converts raw input into the canonical value type for the step
// kind: string for single-select and text kinds, []string for multi-select
// and image sets, float64 for numeric. Select input is matched against the
// step options by value, ID or label (case-insensitive) and replaced by the
// option value. Multi-select values are de-duplicated and put in option
// order. A derived-summary step always normalizes to nil.
//
// An error means the input could not be read as the kind at all; its text
// is suitable to show the user.
func (s *Step) Normalize(raw any, answers Answers) (any, error) {
	switch s.Kind {
	case KindDerivedSummary:
		return nil, nil
	case KindNumeric:
		return normalizeNumber(raw)
	case KindSingleSelect:
		str, err := asString(raw)
		if err != nil {
			return nil, err
		}
		if c, ok := MatchChoice(s.Options(answers), str); ok {
			return c.Val(), nil
		}
		return str, nil
	case KindMultiSelect:
		items, err := asStrings(raw)
		if err != nil {
			return nil, err
		}
		return orderByOptions(s.Options(answers), items), nil
	case KindImageSet:
		items, err := asStrings(raw)
		if err != nil {
			return nil, err
		}
		return dedupe(items), nil
	default:
		return asString(raw)
	}
}

// MatchChoice finds the option named by input.
func MatchChoice(opts []Choice, input string) (Choice, bool) {
	in := strings.TrimSpace(input)
	for _, o := range opts {
		if o.Val() == in || o.ID == in {
			return o, true
		}
	}
	for _, o := range opts {
		if strings.EqualFold(o.Val(), in) || strings.EqualFold(o.ID, in) || strings.EqualFold(o.Label, in) {
			return o, true
		}
	}
	return Choice{}, false
}

// IsEmpty reports whether v counts as "no answer".
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	}
	return false
}

// NormalizeStored coerces a decoded value (for example from JSON, where
// string slices arrive as []any) back to its canonical type for the step.
// Values that cannot be coerced are reported as not ok.
func (s *Step) NormalizeStored(v any) (any, bool) {
	switch s.Kind {
	case KindDerivedSummary:
		return nil, false
	case KindNumeric:
		f, err := normalizeNumber(v)
		return f, err == nil
	case KindMultiSelect, KindImageSet:
		items, err := asStrings(v)
		return items, err == nil
	default:
		str, ok := v.(string)
		return str, ok
	}
}

// FormatValue renders a stored value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

var errNotNumber = errors.New("Please enter a number")

func normalizeNumber(raw any) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, errNotNumber
		}
		f = n
	case string:
		clean := strings.NewReplacer(",", "", "₹", "", " ", "", "_", "").Replace(strings.TrimSpace(v))
		n, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return 0, errNotNumber
		}
		f = n
	default:
		return 0, errNotNumber
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumber
	}
	return f, nil
}

func asString(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case fmt.Stringer:
		return strings.TrimSpace(v.String()), nil
	case float64, int, int64, bool:
		return fmt.Sprint(v), nil
	}
	return "", fmt.Errorf("expected text, got %T", raw)
}

func asStrings(raw any) ([]string, error) {
	var items []string
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case []string:
		items = v
	case []any:
		for _, it := range v {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of text values, got %T", it)
			}
			items = append(items, s)
		}
	case string:
		items = strings.Split(v, ",")
	default:
		return nil, fmt.Errorf("expected a list, got %T", raw)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

// orderByOptions resolves each item against opts and returns the distinct
// values in option order. Unknown items are kept, after the known ones, so
// validation can reject them.
func orderByOptions(opts []Choice, items []string) []string {
	picked := map[string]bool{}
	var unknown []string
	for _, it := range items {
		if c, ok := MatchChoice(opts, it); ok {
			picked[c.Val()] = true
			continue
		}
		unknown = append(unknown, it)
	}
	out := make([]string, 0, len(items))
	for _, o := range opts {
		if picked[o.Val()] {
			out = append(out, o.Val())
		}
	}
	return append(out, dedupe(unknown)...)
}
