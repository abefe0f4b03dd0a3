// Package onboarding holds the per-user onboarding state that gates browsing
// and posting. The state is a single value computed once and handed to the
// front-ends; nothing reads individual flags from storage.
package onboarding

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/propertyshodh/shodh/pkg/catalog"
)

// Prompt is the next onboarding screen a user should see.
type Prompt string

const (
	PromptTerms        Prompt = "terms"
	PromptVerifyMobile Prompt = "verify-mobile"
	PromptWelcome      Prompt = "welcome"
	PromptPostingGuide Prompt = "posting-guide"
	PromptNone         Prompt = "none"
)

// State is the onboarding progress of one user.
type State struct {
	TermsAcceptedAt  *time.Time `json:"terms_accepted_at,omitempty"`
	MobileVerifiedAt *time.Time `json:"mobile_verified_at,omitempty"`
	Mobile           string     `json:"mobile,omitempty"`
	ProfileCompleted bool       `json:"profile_completed"`
	WelcomeSeen      bool       `json:"welcome_seen"`
	PostingGuideSeen bool       `json:"posting_guide_seen"`
}

// NeedsTerms reports whether the terms have not been accepted.
func (s State) NeedsTerms() bool { return s.TermsAcceptedAt == nil }

// NeedsMobileVerification reports whether there is no verified, valid mobile.
func (s State) NeedsMobileVerification() bool {
	return s.MobileVerifiedAt == nil || !validMobile(s.Mobile)
}

// CanBrowse reports whether search and listing pages may be shown.
func (s State) CanBrowse() bool { return !s.NeedsTerms() }

// CanPostListing reports whether the listing wizard may be started.
func (s State) CanPostListing() bool {
	return s.CanBrowse() && !s.NeedsMobileVerification()
}

// NextPrompt returns the first outstanding onboarding screen.
func (s State) NextPrompt() Prompt {
	switch {
	case s.NeedsTerms():
		return PromptTerms
	case s.NeedsMobileVerification():
		return PromptVerifyMobile
	case !s.WelcomeSeen:
		return PromptWelcome
	case !s.PostingGuideSeen:
		return PromptPostingGuide
	}
	return PromptNone
}

// AcceptTerms records terms acceptance. An earlier acceptance is kept.
func (s State) AcceptTerms(now time.Time) State {
	if s.TermsAcceptedAt == nil {
		t := now.UTC()
		s.TermsAcceptedAt = &t
	}
	return s
}

// ErrInvalidMobile is returned for a number the mobile-in validator rejects.
var ErrInvalidMobile = errors.New("invalid mobile number")

// VerifyMobile records a verified mobile number. OTP delivery and checking
// happen elsewhere; this only stores the outcome.
func (s State) VerifyMobile(mobile string, now time.Time) (State, error) {
	if !validMobile(mobile) {
		return s, ErrInvalidMobile
	}
	t := now.UTC()
	s.Mobile = catalog.NormalizeMobile(mobile)
	s.MobileVerifiedAt = &t
	return s, nil
}

// MarkSeen records that prompt p was shown.
func (s State) MarkSeen(p Prompt) State {
	switch p {
	case PromptWelcome:
		s.WelcomeSeen = true
	case PromptPostingGuide:
		s.PostingGuideSeen = true
	}
	return s
}

func validMobile(m string) bool {
	check, ok := catalog.Validator("mobile-in")
	if !ok {
		return false
	}
	return check(m, nil).OK
}

// FromLegacyFlags folds the old per-key storage flags into a State.
// Timestamps that are missing or unparseable fall back to now for flags that
// are set.
func FromLegacyFlags(flags map[string]string, now time.Time) State {
	var s State
	stamp := func(flagKey, atKey string) *time.Time {
		if !truthy(flags[flagKey]) {
			return nil
		}
		t := now.UTC()
		if raw := strings.TrimSpace(flags[atKey]); raw != "" {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				t = parsed.UTC()
			}
		}
		return &t
	}
	s.TermsAcceptedAt = stamp("termsAccepted", "termsAcceptedAt")
	s.Mobile = catalog.NormalizeMobile(flags["verifiedMobile"])
	if s.Mobile != "" {
		s.MobileVerifiedAt = stamp("otpVerified", "otpVerifiedAt")
	}
	s.ProfileCompleted = truthy(flags["profileCompleted"])
	s.WelcomeSeen = truthy(flags["hasSeenWelcome"])
	s.PostingGuideSeen = truthy(flags["hasSeenPostingGuide"])
	return s
}

func truthy(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
