package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/propertyshodh/shodh/pkg/config"
	"github.com/propertyshodh/shodh/pkg/onboarding"
)

var onboardingCmd = &cobra.Command{
	Use:   "onboarding",
	Short: "Show or update a user's onboarding progress",
}

var onboardingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the onboarding state and the next prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOnboarding(func(st onboarding.State) (onboarding.State, bool, error) {
			printOnboarding(os.Stdout, st)
			return st, false, nil
		})
	},
}

var onboardingAcceptCmd = &cobra.Command{
	Use:   "accept-terms",
	Short: "Record that the user accepted the terms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOnboarding(func(st onboarding.State) (onboarding.State, bool, error) {
			st = st.AcceptTerms(time.Now())
			printOnboarding(os.Stdout, st)
			return st, true, nil
		})
	},
}

var onboardingVerifyCmd = &cobra.Command{
	Use:   "verify <mobile>",
	Short: "Record a verified mobile number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOnboarding(func(st onboarding.State) (onboarding.State, bool, error) {
			next, err := st.VerifyMobile(args[0], time.Now())
			if errors.Is(err, onboarding.ErrInvalidMobile) {
				return st, false, fmt.Errorf("%q is not a valid 10-digit Indian mobile number", args[0])
			}
			if err != nil {
				return st, false, err
			}
			printOnboarding(os.Stdout, next)
			return next, true, nil
		})
	},
}

var onboardingSeenCmd = &cobra.Command{
	Use:   "seen <welcome|posting-guide>",
	Short: "Mark an informational prompt as shown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := onboarding.Prompt(args[0])
		if p != onboarding.PromptWelcome && p != onboarding.PromptPostingGuide {
			return fmt.Errorf("unknown prompt %q: want welcome or posting-guide", args[0])
		}
		return withOnboarding(func(st onboarding.State) (onboarding.State, bool, error) {
			st = st.MarkSeen(p)
			printOnboarding(os.Stdout, st)
			return st, true, nil
		})
	},
}

// withOnboarding loads the --user state, applies fn and saves the result
// when fn reports a change.
func withOnboarding(fn func(onboarding.State) (onboarding.State, bool, error)) error {
	if flagUser == "" {
		return errors.New("--user is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := onboarding.NewStore(cfg.OnboardingDir)
	if err != nil {
		return err
	}
	st, err := store.Load(flagUser)
	if err != nil {
		return err
	}
	next, changed, err := fn(st)
	if err != nil || !changed {
		return err
	}
	return store.Save(flagUser, next)
}

func (a *app) onboardingState(userID string) (onboarding.State, error) {
	store, err := onboarding.NewStore(a.cfg.OnboardingDir)
	if err != nil {
		return onboarding.State{}, err
	}
	return store.Load(userID)
}

func printOnboarding(w io.Writer, st onboarding.State) {
	yes := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	stamp := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Local().Format(time.RFC3339)
	}
	fmt.Fprintf(w, "terms accepted:    %s\n", stamp(st.TermsAcceptedAt))
	fmt.Fprintf(w, "mobile verified:   %s %s\n", stamp(st.MobileVerifiedAt), st.Mobile)
	fmt.Fprintf(w, "can browse:        %s\n", yes(st.CanBrowse()))
	fmt.Fprintf(w, "can post listings: %s\n", yes(st.CanPostListing()))
	fmt.Fprintf(w, "next prompt:       %s\n", st.NextPrompt())
}
