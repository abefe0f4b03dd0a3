package catalog

import (
	"strings"
	"testing"
)

func domainErrors(t *testing.T, src string) []*ValidationError {
	t.Helper()
	doc, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return ValidateDomain(doc)
}

func hasMessage(errs []*ValidationError, sev, substr string) bool {
	for _, e := range errs {
		if e.Severity == sev && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateDomain_ForwardReference(t *testing.T) {
	errs := domainErrors(t, `
apiVersion: catalog/v0
meta: {name: fwd}
steps:
  - {id: a, prompt: A, kind: free-text, when: 'b == "x"'}
  - {id: b, prompt: B, kind: free-text}
`)
	if !hasMessage(errs, "error", `reads "b", which is not asked before "a"`) {
		t.Fatalf("want forward reference error, got %v", errs)
	}
}

func TestValidateDomain_ConditionalSiblingOrder(t *testing.T) {
	// c is anchored after a, so it is asked before b even though b is
	// declared first.
	errs := domainErrors(t, `
apiVersion: catalog/v0
meta: {name: sibling}
steps:
  - {id: a, prompt: A, kind: free-text}
  - {id: b, prompt: B, kind: free-text}
  - {id: c, prompt: C, kind: free-text, after: a, when: 'b != nil'}
`)
	if !hasMessage(errs, "error", `reads "b"`) {
		t.Fatalf("want ordering error, got %v", errs)
	}
}

func TestValidateDomain_Anchors(t *testing.T) {
	errs := domainErrors(t, `
apiVersion: catalog/v0
meta: {name: anchors}
steps:
  - {id: a, prompt: A, kind: free-text, after: b}
  - {id: b, prompt: B, kind: free-text}
  - {id: c, prompt: C, kind: free-text, after: missing}
`)
	if !hasMessage(errs, "error", `anchor "b" must be declared before "a"`) {
		t.Errorf("missing ordering error: %v", errs)
	}
	if !hasMessage(errs, "error", `anchor "missing" does not exist`) {
		t.Errorf("missing existence error: %v", errs)
	}
}

func TestValidateDomain_StepShape(t *testing.T) {
	errs := domainErrors(t, `
apiVersion: catalog/v0
meta: {name: shape}
steps:
  - {id: a, prompt: A, kind: single-select}
  - {id: a, prompt: Again, kind: free-text}
  - {id: b, prompt: B, kind: teleport}
  - {id: c, prompt: C, kind: free-text, validator: aadhaar}
  - {id: d, prompt: D, kind: free-text, rules: {pattern: "("}}
`)
	for _, want := range []string{
		"requires options or options_from",
		`duplicate step id "a"`,
		`unknown kind "teleport"`,
		`unknown validator "aadhaar"`,
		"invalid pattern",
	} {
		if !hasMessage(errs, "error", want) {
			t.Errorf("missing %q in %v", want, errs)
		}
	}
}

func TestValidateDomain_UnknownIdentifierIsWarning(t *testing.T) {
	errs := domainErrors(t, `
apiVersion: catalog/v0
meta: {name: warn}
steps:
  - {id: a, prompt: A, kind: free-text, when: 'len(mystery) > 0'}
`)
	if HasErrors(errs) {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !hasMessage(errs, "warning", `"mystery"`) {
		t.Errorf("want warning for mystery, got %v", errs)
	}
	if hasMessage(errs, "warning", `"len"`) {
		t.Errorf("builtin function reported as identifier: %v", errs)
	}
}

func TestValidateDocument_SemanticRejectsBadEnum(t *testing.T) {
	doc, err := Load(strings.NewReader(`
apiVersion: catalog/v9
meta: {name: v9}
steps:
  - {id: a, prompt: A, kind: free-text}
`))
	if err != nil {
		t.Fatal(err)
	}
	errs := ValidateDocument(doc)
	semantic := false
	for _, e := range errs {
		if e.Phase == "semantic" {
			semantic = true
		}
	}
	if !semantic {
		t.Errorf("want semantic error for apiVersion, got %v", errs)
	}
}

func TestValidateDocument_ScenarioClean(t *testing.T) {
	doc, err := Load(strings.NewReader(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if errs := ValidateDocument(doc); len(errs) != 0 {
		t.Fatalf("unexpected findings: %v", errs)
	}
}

func TestGenerateJSONSchema(t *testing.T) {
	data, err := GenerateJSONSchema()
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{"catalog-v0.json", "options_from", "derived-summary"} {
		if !strings.Contains(s, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}
