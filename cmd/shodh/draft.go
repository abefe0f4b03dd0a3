package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/draft"
	"github.com/propertyshodh/shodh/pkg/summary"
	"github.com/propertyshodh/shodh/pkg/wizard"
)

// --- draft ---

var draftJSON bool

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect or discard the saved draft",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved draft",
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
		snap, err := a.drafts.Load(ctx, a.draftKey(cat))
		if errors.Is(err, draft.ErrNotFound) {
			fmt.Println("no draft")
			return nil
		}
		if err != nil {
			return err
		}
		return printDraft(os.Stdout, cat, snap, draftJSON)
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the saved draft",
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
		if err := a.drafts.Clear(ctx, a.draftKey(cat)); err != nil {
			return err
		}
		fmt.Println("draft cleared")
		return nil
	},
}

func printDraft(w io.Writer, cat *catalog.Catalog, snap *draft.Snapshot, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	eng := wizard.Resume(cat, snap)
	fmt.Fprintf(w, "draft for %s, saved %s\n", snap.Catalog, snap.SavedAt.Local().Format("2 Jan 2006 15:04"))
	if cur, ok := eng.CurrentStep(); ok {
		fmt.Fprintf(w, "next question: %d of %d (%s)\n\n", eng.Index()+1, len(eng.Steps()), cur.ID)
	} else {
		fmt.Fprintf(w, "complete; ready to submit\n\n")
	}
	fmt.Fprint(w, summary.Render(cat, eng.Answers(), 78))
	return nil
}
