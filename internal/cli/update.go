package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sripwoud/cza/internal/branding"
	"github.com/sripwoud/cza/internal/config"
	"github.com/sripwoud/cza/internal/updater"
)

var (
	updateCheck   bool
	updateForce   bool
	updateVersion string
)

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Only check for updates, don't install")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "Reinstall even if already on the latest version")
	updateCmd.Flags().StringVar(&updateVersion, "version", "", "Install a specific version (e.g., 1.2.0)")

	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"self-update"},
	Short:   "Update " + branding.CLIName() + " to the latest version",
	Long: `Downloads and installs the latest release from GitHub, or from the mirror
named by ` + branding.EnvVar("MIRROR") + `. The archive is checked against the
release checksums before the running executable is replaced.

  ` + branding.CLIName() + ` update                  # update to latest
  ` + branding.CLIName() + ` update --check          # check only
  ` + branding.CLIName() + ` update --version 1.2.0  # install specific version`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	opts := []updater.Option{
		updater.WithProgress(errOut),
		updater.WithStateHook(func(s updater.State) {
			switch s {
			case updater.StateDownload:
				fmt.Fprintf(errOut, "Downloading for %s/%s...\n", runtime.GOOS, runtime.GOARCH)
			case updater.StateVerify:
				fmt.Fprintln(errOut, "Verifying checksum...")
			case updater.StateSwap:
				fmt.Fprintln(errOut, "Installing...")
			}
		}),
	}
	if mirror := os.Getenv(branding.EnvVar("MIRROR")); mirror != "" {
		opts = append(opts, updater.WithMirror(mirror))
	}
	u := newUpdater(opts...)

	if updateVersion != "" {
		fmt.Fprintf(errOut, "Checking for version %s...\n", updateVersion)
	} else {
		fmt.Fprintln(errOut, "Checking for updates...")
	}

	result, err := u.Update(cmd.Context(), updater.Request{
		Version:   updateVersion,
		CheckOnly: updateCheck,
		Force:     updateForce,
	})
	if err != nil {
		return err
	}

	m := result.Manifest
	switch result.State {
	case updater.StateUpToDate:
		recordCheck(m.CurrentVersion, m.LatestVersion, false)
		fmt.Fprintf(out, "You are on the latest version (%s)\n", m.CurrentVersion)
	case updater.StateUpdateAvailable:
		recordCheck(m.CurrentVersion, m.LatestVersion, true)
		fmt.Fprintf(out, "Update available: %s -> %s\n", m.CurrentVersion, m.LatestVersion)
	case updater.StateDone:
		recordCheck(m.LatestVersion, m.LatestVersion, false)
		fmt.Fprintf(out, "Successfully updated to %s\n", m.LatestVersion)
	}
	return nil
}

func recordCheck(current, latest string, available bool) {
	if err := updater.RecordCheck(config.Dir(), current, latest, available); err != nil {
		log.Debug("Failed to save version cache", "error", err)
	}
}
