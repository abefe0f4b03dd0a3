package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validate checks a normalized candidate. It never mutates answers and is
// safe to call any number of times.
//
// Checks run in order: required, option membership for select kinds, the
// declarative rules, the named validator and finally ValidateFn. The first
// failure wins. Rule and validator failures report the step's Message when
// it has one.
func (s *Step) Validate(value any, answers Answers) Result {
	if s.Kind == KindDerivedSummary {
		return Valid()
	}
	if IsEmpty(value) {
		if s.Required {
			return Invalid(s.messageOr(requiredReason(s.Kind)))
		}
		return Valid()
	}

	if s.Kind.IsSelect() {
		opts := s.Options(answers)
		switch v := value.(type) {
		case string:
			if !hasChoice(opts, v) {
				return Invalid(fmt.Sprintf("%q is not one of the available options", v))
			}
		case []string:
			for _, item := range v {
				if !hasChoice(opts, item) {
					return Invalid(fmt.Sprintf("%q is not one of the available options", item))
				}
			}
		default:
			return Invalid("Please choose from the available options")
		}
	}

	if r := s.checkRules(value); !r.OK {
		return r
	}
	if s.named != nil {
		if r := s.named(value, answers); !r.OK {
			return Invalid(s.messageOr(r.Reason))
		}
	}
	if s.ValidateFn != nil {
		return s.ValidateFn(value, answers)
	}
	return Valid()
}

func (s *Step) messageOr(fallback string) string {
	if s.Message != "" {
		return s.Message
	}
	return fallback
}

func requiredReason(k Kind) string {
	switch k {
	case KindSingleSelect:
		return "Please choose an option"
	case KindMultiSelect:
		return "Please choose at least one option"
	case KindImageSet:
		return "Please add at least one image"
	}
	return "This field is required"
}

func (s *Step) checkRules(value any) Result {
	r := s.Rules
	if r == nil {
		return Valid()
	}
	switch v := value.(type) {
	case float64:
		switch {
		case r.GT != nil && !(v > *r.GT):
			return Invalid(s.messageOr("Must be greater than " + formatNum(*r.GT)))
		case r.GTE != nil && v < *r.GTE:
			return Invalid(s.messageOr("Must be at least " + formatNum(*r.GTE)))
		case r.LT != nil && !(v < *r.LT):
			return Invalid(s.messageOr("Must be less than " + formatNum(*r.LT)))
		case r.LTE != nil && v > *r.LTE:
			return Invalid(s.messageOr("Must be at most " + formatNum(*r.LTE)))
		}
	case string:
		n := utf8.RuneCountInString(v)
		switch {
		case r.MinLength != nil && n < *r.MinLength:
			return Invalid(s.messageOr(fmt.Sprintf("Please enter at least %d characters", *r.MinLength)))
		case r.MaxLength != nil && n > *r.MaxLength:
			return Invalid(s.messageOr(fmt.Sprintf("Please keep it to %d characters or fewer", *r.MaxLength)))
		case s.pattern != nil && !s.pattern.MatchString(v):
			return Invalid(s.messageOr("Please check the format"))
		}
	case []string:
		switch {
		case r.MinItems != nil && len(v) < *r.MinItems:
			return Invalid(s.messageOr(fmt.Sprintf("Please choose at least %d", *r.MinItems)))
		case r.MaxItems != nil && len(v) > *r.MaxItems:
			return Invalid(s.messageOr(fmt.Sprintf("Please choose at most %d", *r.MaxItems)))
		}
	}
	return Valid()
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var (
	mobileRe  = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// builtinValidators returns a fresh registry of the named validators every
// catalog can use.
func builtinValidators() map[string]ValidateFunc {
	return map[string]ValidateFunc{
		"mobile-in":  validateMobile,
		"pincode-in": validatePincode,
		"image-urls": validateImageURLs,
	}
}

// ValidatorNames lists the built-in validator names.
func ValidatorNames() []string {
	return []string{"image-urls", "mobile-in", "pincode-in"}
}

// Validator returns the built-in validator registered under name.
func Validator(name string) (ValidateFunc, bool) {
	fn, ok := builtinValidators()[name]
	return fn, ok
}

// NormalizeMobile strips separators and an Indian country prefix.
func NormalizeMobile(s string) string {
	d := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	switch {
	case len(d) == 12 && strings.HasPrefix(d, "91"):
		return d[2:]
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		return d[1:]
	}
	return d
}

func validateMobile(value any, _ Answers) Result {
	s, _ := value.(string)
	if !mobileRe.MatchString(NormalizeMobile(s)) {
		return Invalid("Please enter a valid 10-digit mobile number")
	}
	return Valid()
}

func validatePincode(value any, _ Answers) Result {
	s, _ := value.(string)
	if !pincodeRe.MatchString(strings.TrimSpace(s)) {
		return Invalid("Please enter a valid 6-digit PIN code")
	}
	return Valid()
}

func validateImageURLs(value any, _ Answers) Result {
	items, _ := value.([]string)
	for _, it := range items {
		if !strings.HasPrefix(it, "https://") && !strings.HasPrefix(it, "http://") {
			return Invalid(fmt.Sprintf("%q is not an uploaded image URL", it))
		}
	}
	return Valid()
}
