package catalog

import "sort"

// Compute derives the effective, ordered step list for answers.
//
// Base steps keep their declared order. After each emitted step its
// conditional children are considered in (priority, declaration) order, and
// are themselves expanded recursively. A step's condition and options only
// see answers of steps already emitted, and only answers those steps would
// still accept, so a stale answer never makes a dependent step visible.
//
// Compute is pure: equal answers always yield the same list.
func (c *Catalog) Compute(answers Answers) []*Step {
	env := make(map[string]any, len(answers))
	out := make([]*Step, 0, len(c.steps))

	var emit func(s *Step)
	emit = func(s *Step) {
		if !s.cond.eval(env) {
			return
		}
		out = append(out, s)
		if v, ok := answers[s.ID]; ok && s.accepts(v, env) {
			env[s.ID] = v
		}
		for _, child := range c.children[s.ID] {
			emit(child)
		}
	}
	for _, s := range c.base {
		emit(s)
	}
	return out
}

// staticOrder is the emission order when every condition holds.
func (c *Catalog) staticOrder() []*Step {
	out := make([]*Step, 0, len(c.steps))
	var emit func(s *Step)
	emit = func(s *Step) {
		out = append(out, s)
		for _, child := range c.children[s.ID] {
			emit(child)
		}
	}
	for _, s := range c.base {
		emit(s)
	}
	return out
}

// Prune drops answers that the effective catalog no longer supports: answers
// for steps that are not visible, and select answers outside the step's
// current options. The input is not modified.
func (c *Catalog) Prune(answers Answers) Answers {
	out := make(Answers, len(answers))
	env := make(Answers, len(answers))
	for _, s := range c.Compute(answers) {
		v, ok := answers[s.ID]
		if !ok || !s.accepts(v, env) {
			continue
		}
		out[s.ID] = v
		env[s.ID] = v
	}
	return out.Clone()
}

// Restore coerces decoded answers (JSON drafts, CLI pairs) back to their
// canonical types. Unknown step IDs and values that cannot be coerced are
// dropped and reported, sorted.
func (c *Catalog) Restore(raw map[string]any) (Answers, []string) {
	out := make(Answers, len(raw))
	var dropped []string
	for id, v := range raw {
		s, ok := c.byID[id]
		if !ok {
			dropped = append(dropped, id)
			continue
		}
		norm, ok := s.NormalizeStored(v)
		if !ok || IsEmpty(norm) {
			dropped = append(dropped, id)
			continue
		}
		out[id] = norm
	}
	sort.Strings(dropped)
	return out, dropped
}

// IDs returns the step IDs of an effective catalog.
func IDs(steps []*Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

// IndexOf returns the position of id in steps, or -1.
func IndexOf(steps []*Step, id string) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// accepts reports whether a stored value is still meaningful for the step
// given the prefix answers env. Only select kinds can go stale; derived
// summaries never hold answers.
func (s *Step) accepts(v any, env map[string]any) bool {
	if s.Kind == KindDerivedSummary {
		return false
	}
	if !s.Kind.IsSelect() {
		return true
	}
	opts := s.Options(env)
	switch val := v.(type) {
	case string:
		return hasChoice(opts, val)
	case []string:
		for _, item := range val {
			if !hasChoice(opts, item) {
				return false
			}
		}
		return true
	}
	return false
}

func hasChoice(opts []Choice, value string) bool {
	for _, o := range opts {
		if o.Val() == value {
			return true
		}
	}
	return false
}
