package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/propertyshodh/shodh/pkg/onboarding"
)

func TestPrintOnboarding(t *testing.T) {
	var buf bytes.Buffer
	st := onboarding.State{}.AcceptTerms(time.Now())
	printOnboarding(&buf, st)
	out := buf.String()
	if !strings.Contains(out, "can browse:        yes") || !strings.Contains(out, "next prompt:       verify-mobile") {
		t.Errorf("got:\n%s", out)
	}
}

func TestWithOnboarding_RequiresUser(t *testing.T) {
	old := flagUser
	flagUser = ""
	defer func() { flagUser = old }()
	err := withOnboarding(func(st onboarding.State) (onboarding.State, bool, error) { return st, false, nil })
	if err == nil {
		t.Error("want error without --user")
	}
}

func TestWithOnboarding_Persists(t *testing.T) {
	t.Setenv("SHODH_ONBOARDING_DIR", t.TempDir())
	old := flagUser
	flagUser = "u1"
	defer func() { flagUser = old }()

	accept := func(st onboarding.State) (onboarding.State, bool, error) {
		return st.AcceptTerms(time.Now()), true, nil
	}
	if err := withOnboarding(accept); err != nil {
		t.Fatal(err)
	}
	var seen onboarding.State
	read := func(st onboarding.State) (onboarding.State, bool, error) {
		seen = st
		return st, false, nil
	}
	if err := withOnboarding(read); err != nil {
		t.Fatal(err)
	}
	if seen.NeedsTerms() {
		t.Error("terms acceptance not saved")
	}
}
