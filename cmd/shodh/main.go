// Command shodh validates listing step catalogs and runs the listing wizard
// in the terminal, as a stepper or as a chat.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/catalog/builtin"
	"github.com/propertyshodh/shodh/pkg/config"
	"github.com/propertyshodh/shodh/pkg/draft"
	"github.com/propertyshodh/shodh/pkg/logger"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	flagCatalog string
	flagUser    string
	flagLocale  string
	flagBackend string
)

var rootCmd = &cobra.Command{
	Use:          "shodh",
	Short:        "PropertyShodh listing wizard",
	Long:         "shodh runs the PropertyShodh property listing wizard and checks the step catalogs that drive it.",
	SilenceUsage: true,
}

// app is the wiring shared by the commands that run a session.
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	drafts      draft.Store
	closeDrafts func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagBackend != "" {
		cfg.Drafts.Backend = flagBackend
	}
	if flagLocale != "" {
		cfg.Locale = flagLocale
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	drafts, closeDrafts, err := draft.Open(ctx, cfg.Drafts)
	if err != nil {
		return nil, fmt.Errorf("open draft store: %w", err)
	}
	return &app{cfg: cfg, log: log, drafts: drafts, closeDrafts: closeDrafts}, nil
}

func (a *app) close() {
	if err := a.closeDrafts(); err != nil {
		a.log.Warn("closing draft store", "error", err)
	}
	a.log.Sync()
}

func (a *app) catalog() (*catalog.Catalog, error) {
	return builtin.Resolve(flagCatalog)
}

func (a *app) draftKey(cat *catalog.Catalog) string {
	return draft.KeyFor(cat.Name(), flagUser)
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [catalog.yaml]",
	Short: "Validate a step catalog YAML file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	doc, errs := catalog.ValidateFile(args[0])
	var failures []*catalog.ValidationError
	for _, e := range errs {
		if e.Severity == "warning" {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "    at: %s\n", e.Path)
			}
			continue
		}
		failures = append(failures, e)
	}
	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(failures))
		for i, e := range failures {
			fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
			}
		}
		return fmt.Errorf("validation failed with %d error(s)", len(failures))
	}
	fmt.Printf("✓ %s is valid (%d steps)\n", doc.Meta.Name, len(doc.Steps))
	return nil
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the step catalog JSON Schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := catalog.GenerateJSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- catalogs ---

var catalogsCmd = &cobra.Command{
	Use:   "catalogs",
	Short: "List the built-in step catalogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range builtin.Names() {
			doc, err := builtin.Document(name)
			if err != nil {
				return err
			}
			marker := " "
			if name == builtin.Default {
				marker = "*"
			}
			fmt.Printf("%s %-20s %-14s %d steps  %s\n", marker, name, doc.Meta.Variant, len(doc.Steps), doc.Meta.Title)
		}
		return nil
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shodh %s (commit %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", builtin.Default, "Built-in catalog name or path to a catalog YAML file")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "Owner id; drafts are kept per user (default: guest)")
	rootCmd.PersistentFlags().StringVar(&flagLocale, "locale", "", "Prompt language, e.g. hi (overrides SHODH_LOCALE)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "drafts", "", "Draft backend: file, memory or redis (overrides SHODH_DRAFT_BACKEND)")

	previewCmd.Flags().StringArrayVar(&previewAnswers, "answer", nil, "Set an answer (step=value), repeatable")

	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftClearCmd)
	draftShowCmd.Flags().BoolVar(&draftJSON, "json", false, "Output the raw snapshot as JSON")

	onboardingCmd.AddCommand(onboardingShowCmd)
	onboardingCmd.AddCommand(onboardingAcceptCmd)
	onboardingCmd.AddCommand(onboardingVerifyCmd)
	onboardingCmd.AddCommand(onboardingSeenCmd)

	testCmd.Flags().StringVar(&testDir, "scenarios", "testdata/scenarios", "Scenario root: {root}/{catalog-name}/*/steps.yaml")
	testCmd.Flags().StringVar(&testScenario, "scenario", "", "Run only the named scenario (default: all)")
	testCmd.Flags().BoolVar(&testJSON, "json", false, "Output results as structured JSON")
	testCmd.Flags().BoolVar(&testFailFast, "fail-fast", false, "Stop after first failure")
	testCmd.Flags().DurationVar(&testTimeout, "timeout", 30*time.Second, "Per-scenario timeout")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(catalogsCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(onboardingCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}

func userOrGuest() string {
	if u := strings.TrimSpace(flagUser); u != "" {
		return u
	}
	return "guest"
}
