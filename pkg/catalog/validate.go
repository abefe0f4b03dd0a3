package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError is a single finding with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // e.g. "steps[3].when"
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []*ValidationError) bool {
	return firstError(errs) >= 0
}

func firstError(errs []*ValidationError) int {
	for i, e := range errs {
		if e.Severity == "error" {
			return i
		}
	}
	return -1
}

// ValidateFile runs the full pipeline on a catalog file.
// Phase 1: structural (strict YAML decode)
// Phase 2: semantic (JSON Schema)
// Phase 3: domain (ordering, references, conditions)
func ValidateFile(path string) (*Document, []*ValidationError) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}
	errs := ValidateDocument(doc)
	if len(errs) > 0 {
		return doc, errs
	}
	return doc, nil
}

// ValidateDocument runs the semantic and domain phases on a decoded document.
func ValidateDocument(doc *Document) []*ValidationError {
	var errs []*ValidationError
	errs = append(errs, validateSemantic(doc)...)
	errs = append(errs, ValidateDomain(doc)...)
	return errs
}

func semanticError(format string, args ...any) []*ValidationError {
	return []*ValidationError{{
		Phase:    "semantic",
		Message:  fmt.Sprintf(format, args...),
		Severity: "error",
	}}
}

// validateSemantic checks the document against the generated JSON Schema.
func validateSemantic(doc *Document) []*ValidationError {
	data, err := json.Marshal(doc)
	if err != nil {
		return semanticError("marshal for schema validation: %v", err)
	}
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return semanticError("generate schema: %v", err)
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return semanticError("unmarshal schema: %v", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("catalog-v0.json", schemaDoc); err != nil {
		return semanticError("add schema resource: %v", err)
	}
	sch, err := c.Compile("catalog-v0.json")
	if err != nil {
		return semanticError("compile schema: %v", err)
	}

	var inst any
	if err := json.Unmarshal(data, &inst); err != nil {
		return semanticError("unmarshal document: %v", err)
	}
	if err := sch.Validate(inst); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return semanticError("%v", err)
		}
		var errs []*ValidationError
		for _, cause := range flattenValidationErrors(ve) {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				Path:     strings.Join(cause.InstanceLocation, "/"),
				Message:  fmt.Sprintf("%v", cause.ErrorKind),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs the domain phase on a document.
func ValidateDomain(doc *Document) []*ValidationError {
	var errs []*ValidationError
	if doc.APIVersion != APIVersion {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "apiVersion",
			Message:  fmt.Sprintf("unrecognized apiVersion %q, expected %q", doc.APIVersion, APIVersion),
			Severity: "error",
		})
	}
	if doc.Meta.Name == "" {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "meta.name",
			Message:  "catalog requires a name",
			Severity: "error",
		})
	}
	steps := make([]*Step, len(doc.Steps))
	for i := range doc.Steps {
		steps[i] = &Step{StepDef: doc.Steps[i]}
	}
	return append(errs, validateSteps(steps, builtinValidators())...)
}

var stepIDRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// validateSteps checks the rules that make Compute well defined: unique IDs,
// anchors that exist and precede the step, conditions and option sources that
// only read steps emitted earlier, and per-kind field requirements.
func validateSteps(steps []*Step, validators map[string]ValidateFunc) []*ValidationError {
	var errs []*ValidationError
	add := func(sev, path, format string, args ...any) {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     path,
			Message:  fmt.Sprintf(format, args...),
			Severity: sev,
		})
	}

	if len(steps) == 0 {
		add("error", "steps", "catalog must contain at least one step")
		return errs
	}

	declared := make(map[string]int, len(steps))
	fields := map[string]int{}
	for i, s := range steps {
		path := fmt.Sprintf("steps[%d]", i)
		if !stepIDRe.MatchString(s.ID) {
			add("error", path+".id", "invalid step id %q: use lowercase letters, digits and underscores", s.ID)
		}
		if prev, dup := declared[s.ID]; dup {
			add("error", path+".id", "duplicate step id %q (first declared at steps[%d])", s.ID, prev)
			continue
		}
		declared[s.ID] = i
		if s.Field != "" {
			if prev, dup := fields[s.Field]; dup {
				add("warning", path+".field", "field %q is also bound by steps[%d]; the later answer wins", s.Field, prev)
			}
			fields[s.Field] = i
		}
		if strings.TrimSpace(s.Prompt) == "" {
			add("error", path+".prompt", "step %q requires a prompt", s.ID)
		}
		if !slices.Contains(Kinds, s.Kind) {
			add("error", path+".kind", "unknown kind %q", s.Kind)
		}
		errs = append(errs, validateKindFields(s, path)...)
		if s.Validator != "" {
			if _, ok := validators[s.Validator]; !ok {
				add("error", path+".validator", "unknown validator %q", s.Validator)
			}
		}
		if s.Rules != nil && s.Rules.Pattern != "" {
			if _, err := regexp.Compile(s.Rules.Pattern); err != nil {
				add("error", path+".rules.pattern", "invalid pattern: %v", err)
			}
		}
	}

	// Anchors must be declared earlier, which also rules out cycles.
	for i, s := range steps {
		if s.After == "" {
			continue
		}
		j, ok := declared[s.After]
		switch {
		case !ok:
			add("error", fmt.Sprintf("steps[%d].after", i), "anchor %q does not exist", s.After)
		case s.After == s.ID:
			add("error", fmt.Sprintf("steps[%d].after", i), "step %q cannot be anchored to itself", s.ID)
		case j > i:
			add("error", fmt.Sprintf("steps[%d].after", i), "anchor %q must be declared before %q", s.After, s.ID)
		}
	}
	if HasErrors(errs) {
		return errs
	}

	// Reads must target steps emitted earlier in the unconditional order.
	order := staticOrderOf(steps)
	pos := make(map[string]int, len(order))
	for i, s := range order {
		pos[s.ID] = i
	}
	for i, s := range steps {
		path := fmt.Sprintf("steps[%d]", i)
		if s.OptionsFrom != nil {
			src := s.OptionsFrom.Step
			if p, ok := pos[src]; !ok {
				add("error", path+".options_from.step", "options source %q does not exist", src)
			} else if p >= pos[s.ID] {
				add("error", path+".options_from.step", "options source %q is not asked before %q", src, s.ID)
			} else if !steps[declared[src]].Kind.IsSelect() {
				add("warning", path+".options_from.step", "options source %q is not a select step", src)
			}
		}
		if s.When == "" {
			continue
		}
		refs, err := conditionRefs(s.When)
		if err == nil {
			_, err = compileCondition(s.When)
		}
		if err != nil {
			add("error", path+".when", "%v", err)
			continue
		}
		for _, ref := range refs {
			p, ok := pos[ref]
			switch {
			case !ok:
				add("warning", path+".when", "condition reads %q, which is not a step; it will always be nil", ref)
			case ref == s.ID:
				add("error", path+".when", "step %q cannot depend on its own answer", s.ID)
			case p >= pos[s.ID]:
				add("error", path+".when", "condition reads %q, which is not asked before %q", ref, s.ID)
			}
		}
	}
	return errs
}

func validateKindFields(s *Step, path string) []*ValidationError {
	var errs []*ValidationError
	add := func(sev, field, format string, args ...any) {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     path + field,
			Message:  fmt.Sprintf(format, args...),
			Severity: sev,
		})
	}
	hasOpts := len(s.StepDef.Options) > 0 || s.OptionsFrom != nil || s.OptionsFn != nil
	if s.Kind.IsSelect() {
		if !hasOpts {
			add("error", ".options", "%s step %q requires options or options_from", s.Kind, s.ID)
		}
		if len(s.StepDef.Options) > 0 && s.OptionsFrom != nil {
			add("error", ".options_from", "step %q declares both options and options_from", s.ID)
		}
		seen := map[string]bool{}
		for j, o := range s.StepDef.Options {
			if seen[o.Val()] {
				add("error", fmt.Sprintf(".options[%d]", j), "duplicate option value %q", o.Val())
			}
			seen[o.Val()] = true
		}
		if s.OptionsFrom != nil {
			for key, set := range s.OptionsFrom.Sets {
				if len(set) == 0 {
					add("warning", ".options_from.sets."+key, "option set %q is empty", key)
				}
			}
		}
	} else if hasOpts {
		add("warning", ".options", "%s step %q ignores options", s.Kind, s.ID)
	}
	if s.Kind == KindDerivedSummary {
		if s.Required {
			add("warning", ".required", "derived-summary step %q has no answer to require", s.ID)
		}
		if s.Field != "" {
			add("error", ".field", "derived-summary step %q cannot bind a field", s.ID)
		}
	}
	if r := s.Rules; r != nil {
		numeric := r.GT != nil || r.GTE != nil || r.LT != nil || r.LTE != nil
		text := r.MinLength != nil || r.MaxLength != nil || r.Pattern != ""
		list := r.MinItems != nil || r.MaxItems != nil
		if numeric && s.Kind != KindNumeric {
			add("warning", ".rules", "numeric bounds on %s step %q are ignored", s.Kind, s.ID)
		}
		if text && s.Kind != KindFreeText && s.Kind != KindLongText {
			add("warning", ".rules", "text rules on %s step %q are ignored", s.Kind, s.ID)
		}
		if list && !s.Kind.IsList() {
			add("warning", ".rules", "item rules on %s step %q are ignored", s.Kind, s.ID)
		}
	}
	return errs
}

// staticOrderOf is Catalog.staticOrder for steps that have not been built.
// Anchors are assumed valid.
func staticOrderOf(steps []*Step) []*Step {
	c := &Catalog{children: map[string][]*Step{}}
	for i, s := range steps {
		cp := *s
		cp.index = i
		if cp.After == "" {
			c.base = append(c.base, &cp)
		} else {
			c.children[cp.After] = append(c.children[cp.After], &cp)
		}
	}
	for _, kids := range c.children {
		sortSiblings(kids)
	}
	return c.staticOrder()
}
