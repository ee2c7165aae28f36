package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/branding"
	"github.com/sripwoud/cza/internal/config"
	"github.com/sripwoud/cza/internal/logger"
	"github.com/sripwoud/cza/internal/ui"
	"github.com/sripwoud/cza/internal/updater"
)

var (
	buildVersion = updater.DevVersion
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var verbose bool

// Loaded once per invocation by the root pre-run.
var (
	store *config.Store
	cfg   config.Configuration
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` scaffolds zero-knowledge application projects from curated
templates, then initializes git, installs tools with mise, and sets up hk hooks.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrapf(errUtils.ErrInvalidUsage, "%v", err)
	})
}

// setup opens the config store, merges the layers, and configures logging
// and color before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	store, err = config.Open()
	if err != nil {
		return err
	}
	if err := store.BindFlag("development.verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return err
	}

	cfg, err = store.Load()
	if err != nil {
		// The config commands must keep working on a broken file so it can
		// be inspected and reset.
		if !isConfigCommand(cmd) {
			return err
		}
		log.Warn("Using defaults", "error", err)
		cfg = config.Defaults()
	}

	logger.Setup(logger.Options{Verbose: cfg.Development.Verbose})
	ui.SetColor(colorEnabled())

	switch cmd.Name() {
	case "update", "version", "__complete":
	default:
		updater.PrintBannerFromCache(cmd.ErrOrStderr(), config.Dir(), buildVersion)
	}
	return nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == configCmd {
			return true
		}
	}
	return false
}

// colorEnabled combines development.color with NO_COLOR and whether stderr
// is a terminal.
func colorEnabled() bool {
	if !cfg.Development.Color {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return ui.IsTerminal()
}

// ColorEnabled reports whether errors should be printed with color.
func ColorEnabled() bool {
	return colorEnabled()
}

// usageArgs marks positional argument errors as invalid usage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return errors.WithHint(
				errors.Wrapf(errUtils.ErrInvalidUsage, "%v", err),
				"Run '"+cmd.CommandPath()+" --help' for usage",
			)
		}
		return nil
	}
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		return errors.WithHint(
			errors.Wrapf(errUtils.ErrInvalidUsage, "%v", err),
			"Run '"+branding.CLIName()+" --help' for usage",
		)
	}
	return err
}
