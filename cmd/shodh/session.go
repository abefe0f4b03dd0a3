package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/chat"
	"github.com/propertyshodh/shodh/pkg/localize"
	"github.com/propertyshodh/shodh/pkg/logger"
	"github.com/propertyshodh/shodh/pkg/onboarding"
	"github.com/propertyshodh/shodh/pkg/storage"
	"github.com/propertyshodh/shodh/pkg/submit"
	"github.com/propertyshodh/shodh/pkg/tui"
	"github.com/propertyshodh/shodh/pkg/wizard"
)

// submitFunc posts a completed session and returns the record id.
type submitFunc func(ctx context.Context, e *wizard.Engine) (string, error)

// --- fill ---

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill in a listing with the terminal stepper",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		eng, loc, err := a.startSession(ctx, logger.Nop())
		if err != nil {
			return err
		}
		defer eng.Close()

		post, closeSubmit := a.submitter(ctx)
		defer closeSubmit()

		res, err := tui.Run(tui.Config{Engine: eng, Locale: a.cfg.Locale, Localizer: loc, Submit: post})
		if err != nil {
			return err
		}
		switch {
		case res.RecordID != "":
			fmt.Printf("✓ listing submitted for review (%s)\n", res.RecordID)
		case res.Err != nil:
			fmt.Fprintf(os.Stderr, "listing not submitted: %v\nyour draft is saved; run shodh submit to retry\n", res.Err)
		default:
			fmt.Println("draft saved")
		}
		return nil
	},
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Fill in a listing as a conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		eng, loc, err := a.startSession(ctx, a.log)
		if err != nil {
			return err
		}
		defer eng.Close()

		post, closeSubmit := a.submitter(ctx)
		defer closeSubmit()

		opts := []chat.Option{chat.WithLocale(a.cfg.Locale, loc)}
		if post != nil {
			opts = append(opts, chat.WithSubmit(post))
		}
		return chat.New(eng, opts...).Run(ctx)
	},
}

// --- submit ---

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the saved draft as a listing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		cat, err := a.catalog()
		if err != nil {
			return err
		}
		eng, found := wizard.Open(ctx, cat, a.drafts, a.draftKey(cat), wizard.WithLogger(a.log))
		defer eng.Close()
		if !found {
			return fmt.Errorf("no draft for %s", a.draftKey(cat))
		}
		if missing := submit.Incomplete(cat, eng.Answers()); len(missing) > 0 {
			return fmt.Errorf("draft is incomplete: %v", missing)
		}
		post, closeSubmit := a.submitter(ctx)
		defer closeSubmit()
		if post == nil {
			return errors.New("submission needs SHODH_PG_DSN")
		}
		id, err := post(ctx, eng)
		if err != nil {
			return err
		}
		fmt.Printf("✓ listing submitted for review (%s)\n", id)
		return nil
	},
}

// startSession gates on onboarding, then opens or resumes the draft.
func (a *app) startSession(ctx context.Context, log *logger.Logger) (*wizard.Engine, localize.Localizer, error) {
	if err := a.checkOnboarding(); err != nil {
		return nil, nil, err
	}
	cat, err := a.catalog()
	if err != nil {
		return nil, nil, err
	}
	eng, resumed := wizard.Open(ctx, cat, a.drafts, a.draftKey(cat), wizard.WithLogger(log))
	if resumed {
		fmt.Fprintf(os.Stderr, "resuming your saved draft (%d answers)\n", len(eng.Answers()))
	}
	loc, err := localize.NewCached(localize.FromCatalog(cat), 1024)
	if err != nil {
		return nil, nil, err
	}
	return eng, loc, nil
}

// checkOnboarding refuses to start a listing for a signed-in user who has
// not accepted the terms or verified a mobile number. Guests are not gated.
func (a *app) checkOnboarding() error {
	if flagUser == "" {
		return nil
	}
	st, err := a.onboardingState(flagUser)
	if err != nil {
		return err
	}
	if st.CanPostListing() {
		return nil
	}
	switch st.NextPrompt() {
	case onboarding.PromptTerms:
		return fmt.Errorf("accept the terms first: shodh onboarding accept-terms --user %s", flagUser)
	default:
		return fmt.Errorf("verify your mobile first: shodh onboarding verify <mobile> --user %s", flagUser)
	}
}

// submitter wires the submission adapter. It returns a nil function when no
// database is configured.
func (a *app) submitter(ctx context.Context) (submitFunc, func()) {
	if a.cfg.PostgresDSN == "" {
		return nil, func() {}
	}
	creator, err := submit.NewPostgresCreator(ctx, a.cfg.PostgresDSN)
	if err != nil {
		a.log.Error("postgres unavailable; submission disabled", "error", err)
		return nil, func() {}
	}
	var up submit.Uploader
	if a.cfg.Storage.Enabled {
		s3, err := storage.NewS3Uploader(a.cfg.Storage)
		if err != nil {
			a.log.Error("image storage unavailable", "error", err)
		} else {
			up = s3
		}
	}
	adapter := &submit.Adapter{Creator: creator, Drafts: a.drafts, Log: a.log}
	return newSubmitFunc(adapter, up, userOrGuest()), creator.Close
}

// newSubmitFunc returns a submitFunc that reuses one upload task for as long
// as the images answer is unchanged, so a retried submission does not upload
// the same files twice.
func newSubmitFunc(adapter *submit.Adapter, up submit.Uploader, owner string) submitFunc {
	var (
		task    *submit.UploadTask
		sources []string
	)
	return func(ctx context.Context, e *wizard.Engine) (string, error) {
		// Pending draft writes must land before the adapter clears the draft.
		if err := e.Flush(ctx); err != nil {
			return "", err
		}
		answers := e.Answers()
		images := imagesOf(e.Catalog(), answers)
		if task == nil || !reflect.DeepEqual(images, sources) {
			task, sources = submit.NewUploadTask(up, owner, images), images
		}
		id, err := adapter.Submit(ctx, submit.Request{
			DraftKey: e.DraftKey(),
			OwnerID:  owner,
			Catalog:  e.Catalog(),
			Answers:  answers,
			Images:   task,
		})
		return string(id), err
	}
}

// imagesOf returns the answer of the step bound to the images field.
func imagesOf(cat *catalog.Catalog, answers catalog.Answers) []string {
	for _, s := range cat.Steps() {
		if s.Field == "images" || (s.Field == "" && s.Kind == catalog.KindImageSet) {
			if v, ok := answers[s.ID].([]string); ok {
				return v
			}
		}
	}
	return nil
}
