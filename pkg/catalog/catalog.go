package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrUnknownStep is returned when a step ID is not declared in a catalog.
var ErrUnknownStep = errors.New("unknown step")

// Step is a compiled step definition.
//
// OptionsFn and ValidateFn let Go callers attach behaviour that a YAML
// document cannot express. When set they take precedence over Options and
// OptionsFrom, and run after the declarative rules respectively.
type Step struct {
	StepDef

	OptionsFn  func(Answers) []Choice
	ValidateFn ValidateFunc

	index   int
	cond    *condition
	pattern *regexp.Regexp
	named   ValidateFunc
	deps    []string
}

// Index is the step's declaration position in its catalog.
func (s *Step) Index() int { return s.index }

// DependsOn lists the step IDs whose answers can change this step's
// visibility or options.
func (s *Step) DependsOn() []string { return append([]string(nil), s.deps...) }

// Conditional reports whether the step is spliced in relative to an anchor.
func (s *Step) Conditional() bool { return s.After != "" }

// PromptFor returns the localized prompt for locale, falling back to Prompt.
func (s *Step) PromptFor(locale string) string {
	if p, ok := s.PromptI18n[locale]; ok && p != "" {
		return p
	}
	if i := strings.IndexByte(locale, '-'); i > 0 {
		if p, ok := s.PromptI18n[locale[:i]]; ok && p != "" {
			return p
		}
	}
	return s.Prompt
}

// Options returns the choices valid for this step given the answers so far.
// Non-select steps have none.
func (s *Step) Options(answers Answers) []Choice {
	if s.OptionsFn != nil {
		return s.OptionsFn(answers)
	}
	if s.OptionsFrom != nil {
		key, ok := answers[s.OptionsFrom.Step].(string)
		if !ok {
			return nil
		}
		return s.OptionsFrom.Sets[key]
	}
	return s.StepDef.Options
}

// Catalog is an immutable, compiled set of step definitions.
type Catalog struct {
	meta     Meta
	steps    []*Step
	byID     map[string]*Step
	base     []*Step
	children map[string][]*Step
	revdeps  map[string][]string
	optdeps  map[string][]string
}

// Option configures compilation.
type Option func(*compileConfig)

type compileConfig struct {
	validators map[string]ValidateFunc
}

// WithValidator registers a named validator that steps can reference
// through their `validator` field.
func WithValidator(name string, fn ValidateFunc) Option {
	return func(c *compileConfig) {
		c.validators[name] = fn
	}
}

// Compile validates the domain rules of doc and builds a Catalog.
func Compile(doc *Document, opts ...Option) (*Catalog, error) {
	if doc == nil {
		return nil, fmt.Errorf("compile catalog: nil document")
	}
	if doc.APIVersion != APIVersion {
		return nil, fmt.Errorf("compile catalog: unrecognized apiVersion %q, expected %q", doc.APIVersion, APIVersion)
	}
	steps := make([]*Step, len(doc.Steps))
	for i := range doc.Steps {
		steps[i] = &Step{StepDef: doc.Steps[i]}
	}
	return Build(doc.Meta, steps, opts...)
}

// Build compiles programmatically constructed steps. The steps are copied;
// later changes by the caller do not affect the catalog.
func Build(meta Meta, steps []*Step, opts ...Option) (*Catalog, error) {
	cfg := &compileConfig{validators: builtinValidators()}
	for _, o := range opts {
		o(cfg)
	}

	if errs := validateSteps(steps, cfg.validators); HasErrors(errs) {
		return nil, fmt.Errorf("compile catalog %q: %w", meta.Name, errs[firstError(errs)])
	}

	c := &Catalog{
		meta:     meta,
		byID:     make(map[string]*Step, len(steps)),
		children: make(map[string][]*Step),
		revdeps:  make(map[string][]string),
		optdeps:  make(map[string][]string),
	}
	for i, src := range steps {
		s := *src
		s.index = i
		if s.When != "" {
			cond, err := compileCondition(s.When)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", s.ID, err)
			}
			s.cond = cond
		}
		if s.Rules != nil && s.Rules.Pattern != "" {
			re, err := regexp.Compile(s.Rules.Pattern)
			if err != nil {
				return nil, fmt.Errorf("step %q: invalid pattern: %w", s.ID, err)
			}
			s.pattern = re
		}
		if s.Validator != "" {
			s.named = cfg.validators[s.Validator]
		}
		s.deps = stepDeps(&s)
		c.steps = append(c.steps, &s)
		c.byID[s.ID] = &s
	}

	for _, s := range c.steps {
		if s.After == "" {
			c.base = append(c.base, s)
			continue
		}
		c.children[s.After] = append(c.children[s.After], s)
	}
	for _, kids := range c.children {
		sortSiblings(kids)
	}
	for _, s := range c.steps {
		for _, d := range s.deps {
			c.revdeps[d] = append(c.revdeps[d], s.ID)
		}
		for _, d := range optionSources(s) {
			c.optdeps[d] = append(c.optdeps[d], s.ID)
		}
	}
	return c, nil
}

// sortSiblings orders conditional children of one anchor by priority, then
// declaration order.
func sortSiblings(kids []*Step) {
	sort.SliceStable(kids, func(i, j int) bool {
		if kids[i].Priority != kids[j].Priority {
			return kids[i].Priority < kids[j].Priority
		}
		return kids[i].index < kids[j].index
	})
}

// stepDeps collects anchor, options source and condition references that
// name steps. Unknown identifiers are left to validation.
func stepDeps(s *Step) []string {
	seen := map[string]bool{}
	var deps []string
	add := func(id string) {
		if id != "" && id != s.ID && !seen[id] {
			seen[id] = true
			deps = append(deps, id)
		}
	}
	add(s.After)
	if s.OptionsFrom != nil {
		add(s.OptionsFrom.Step)
	}
	if s.When != "" {
		refs, _ := conditionRefs(s.When)
		for _, r := range refs {
			add(r)
		}
	}
	return deps
}

// Meta returns the catalog metadata.
func (c *Catalog) Meta() Meta { return c.meta }

// Name is shorthand for Meta().Name.
func (c *Catalog) Name() string { return c.meta.Name }

// Steps returns every declared step in declaration order.
func (c *Catalog) Steps() []*Step { return append([]*Step(nil), c.steps...) }

// Step looks up a step by ID.
func (c *Catalog) Step(id string) (*Step, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Lookup is Step with an error for unknown IDs.
func (c *Catalog) Lookup(id string) (*Step, error) {
	s, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w %q in catalog %q", ErrUnknownStep, id, c.meta.Name)
	}
	return s, nil
}

// Dependents returns every step that transitively depends on id, in
// declaration order.
func (c *Catalog) Dependents(id string) []string {
	return c.closure(id, c.revdeps)
}

// OptionDependents returns every step whose options derive, directly or
// transitively, from the answer to id. A step with OptionsFn is taken to
// derive from every step it depends on.
func (c *Catalog) OptionDependents(id string) []string {
	return c.closure(id, c.optdeps)
}

// optionSources lists the steps s takes its options from.
func optionSources(s *Step) []string {
	switch {
	case s.OptionsFn != nil:
		return s.deps
	case s.OptionsFrom != nil && s.OptionsFrom.Step != s.ID:
		return []string{s.OptionsFrom.Step}
	}
	return nil
}

func (c *Catalog) closure(id string, edges map[string][]string) []string {
	seen := map[string]bool{}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range edges[cur] {
			if !seen[d] && d != id {
				seen[d] = true
				queue = append(queue, d)
			}
		}
	}
	var out []string
	for _, s := range c.steps {
		if seen[s.ID] {
			out = append(out, s.ID)
		}
	}
	return out
}
