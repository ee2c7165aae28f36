package updater

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sripwoud/cza/internal/branding"
)

// PrintBannerFromCache prints the update banner if the cached check found a
// newer release for the running version. It never touches the network.
func PrintBannerFromCache(w io.Writer, configDir, currentVersion string) {
	cache, err := LoadCache(configDir)
	if err != nil {
		log.Debug("Ignoring unreadable version cache", "error", err)
		return
	}
	if cache == nil || !cache.UpdateAvailable || cache.CurrentVersion != currentVersion {
		return
	}
	PrintUpdateBanner(w, cache.CurrentVersion, cache.LatestVersion)
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, current, latest string) {
	fmt.Fprintf(w, "\nUpdate available: %s -> %s\n", current, latest)
	fmt.Fprintf(w, "    Run `%s update` to upgrade\n\n", branding.CLIName())
}

// RecordCheck stores the outcome of a version check for the banner.
func RecordCheck(configDir, current, latest string, available bool) error {
	return SaveCache(configDir, &VersionCache{
		LatestVersion:   latest,
		CurrentVersion:  current,
		CheckedAt:       time.Now(),
		UpdateAvailable: available,
	})
}
