// Package catalog defines wizard step catalogs: the YAML document format,
// its validation pipeline and the pure derivation of the effective step list
// from the answers collected so far.
package catalog

// APIVersion is the only catalog document version understood by this package.
const APIVersion = "catalog/v0"

// Kind is the input kind of a step.
type Kind string

const (
	KindSingleSelect   Kind = "single-select"
	KindMultiSelect    Kind = "multi-select"
	KindFreeText       Kind = "free-text"
	KindNumeric        Kind = "numeric"
	KindLongText       Kind = "long-text"
	KindImageSet       Kind = "image-set"
	KindDerivedSummary Kind = "derived-summary"
)

// Kinds lists every supported kind in declaration order.
var Kinds = []Kind{
	KindSingleSelect, KindMultiSelect, KindFreeText, KindNumeric,
	KindLongText, KindImageSet, KindDerivedSummary,
}

// IsSelect reports whether answers of this kind must come from the step options.
func (k Kind) IsSelect() bool {
	return k == KindSingleSelect || k == KindMultiSelect
}

// IsList reports whether answers of this kind are string slices.
func (k Kind) IsList() bool {
	return k == KindMultiSelect || k == KindImageSet
}

// Document is a catalog file as written on disk.
type Document struct {
	APIVersion string    `yaml:"apiVersion" json:"apiVersion" jsonschema:"required,enum=catalog/v0"`
	Meta       Meta      `yaml:"meta"       json:"meta"       jsonschema:"required"`
	Steps      []StepDef `yaml:"steps"      json:"steps"      jsonschema:"required,minItems=1"`
}

// Meta identifies a catalog and the wizard variant it drives.
type Meta struct {
	Name        string `yaml:"name"                  json:"name"                  jsonschema:"required"`
	Variant     string `yaml:"variant,omitempty"     json:"variant,omitempty"     jsonschema:"enum=comprehensive,enum=chat,enum=admin"`
	Title       string `yaml:"title,omitempty"       json:"title,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// StepDef is the declarative part of a step.
//
// A step with After set is conditional: it is spliced immediately after the
// step it names, ordered among its siblings by Priority and then by
// declaration order. When is an expr-lang boolean expression over the answers
// of earlier steps; a missing answer evaluates as nil.
type StepDef struct {
	ID          string            `yaml:"id"                    json:"id"                    jsonschema:"required,pattern=^[a-z][a-z0-9_]*$"`
	Prompt      string            `yaml:"prompt"                json:"prompt"                jsonschema:"required"`
	PromptI18n  map[string]string `yaml:"prompt_i18n,omitempty" json:"prompt_i18n,omitempty"`
	Label       string            `yaml:"label,omitempty"       json:"label,omitempty"`
	Help        string            `yaml:"help,omitempty"        json:"help,omitempty"`
	Placeholder string            `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Kind        Kind              `yaml:"kind"                  json:"kind"                  jsonschema:"required,enum=single-select,enum=multi-select,enum=free-text,enum=numeric,enum=long-text,enum=image-set,enum=derived-summary"`
	Required    bool              `yaml:"required,omitempty"    json:"required,omitempty"`
	Field       string            `yaml:"field,omitempty"       json:"field,omitempty"`
	After       string            `yaml:"after,omitempty"       json:"after,omitempty"`
	Priority    int               `yaml:"priority,omitempty"    json:"priority,omitempty"    jsonschema:"minimum=0"`
	When        string            `yaml:"when,omitempty"        json:"when,omitempty"`
	Options     []Choice          `yaml:"options,omitempty"     json:"options,omitempty"`
	OptionsFrom *OptionsFrom      `yaml:"options_from,omitempty" json:"options_from,omitempty"`
	Rules       *Rules            `yaml:"rules,omitempty"       json:"rules,omitempty"`
	Validator   string            `yaml:"validator,omitempty"   json:"validator,omitempty"`
	Message     string            `yaml:"message,omitempty"     json:"message,omitempty"`
}

// Choice is one selectable option.
type Choice struct {
	ID    string `yaml:"id"              json:"id"              jsonschema:"required"`
	Label string `yaml:"label"           json:"label"           jsonschema:"required"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Val returns the stored value for the choice, defaulting to its ID.
func (c Choice) Val() string {
	if c.Value != "" {
		return c.Value
	}
	return c.ID
}

// OptionsFrom derives a step's options from the answer to an earlier step.
// Sets is keyed by that answer's value.
type OptionsFrom struct {
	Step string              `yaml:"step" json:"step" jsonschema:"required"`
	Sets map[string][]Choice `yaml:"sets" json:"sets" jsonschema:"required"`
}

// Rules are declarative value constraints checked on commit.
type Rules struct {
	GT        *float64 `yaml:"gt,omitempty"         json:"gt,omitempty"`
	GTE       *float64 `yaml:"gte,omitempty"        json:"gte,omitempty"`
	LT        *float64 `yaml:"lt,omitempty"         json:"lt,omitempty"`
	LTE       *float64 `yaml:"lte,omitempty"        json:"lte,omitempty"`
	MinLength *int     `yaml:"min_length,omitempty" json:"min_length,omitempty" jsonschema:"minimum=0"`
	MaxLength *int     `yaml:"max_length,omitempty" json:"max_length,omitempty" jsonschema:"minimum=1"`
	Pattern   string   `yaml:"pattern,omitempty"    json:"pattern,omitempty"`
	MinItems  *int     `yaml:"min_items,omitempty"  json:"min_items,omitempty"  jsonschema:"minimum=0"`
	MaxItems  *int     `yaml:"max_items,omitempty"  json:"max_items,omitempty"  jsonschema:"minimum=1"`
}

// Answers maps step IDs to committed values. Values are string, []string or
// float64 depending on the step kind (see Normalize).
type Answers map[string]any

// Clone returns a shallow copy with slice values duplicated, so callers can
// never mutate a map owned by someone else.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if s, ok := v.([]string); ok {
			v = append([]string(nil), s...)
		}
		out[k] = v
	}
	return out
}

// Result is the outcome of validating a candidate value.
type Result struct {
	OK     bool
	Reason string
}

// Valid is the passing result.
func Valid() Result { return Result{OK: true} }

// Invalid is a failing result with a user-facing reason.
func Invalid(reason string) Result { return Result{Reason: reason} }

// ValidateFunc checks a normalized candidate against the answers so far.
type ValidateFunc func(value any, answers Answers) Result
