package updater

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

// DevVersion is the version string of unreleased builds.
const DevVersion = "dev"

// CompareVersions compares two version strings using semver.
// Returns -1 if current < latest, 0 if equal, 1 if current > latest.
// A leading "v" is ignored.
func CompareVersions(current, latest string) (int, error) {
	cv, err := parseSemver(current)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing current version %q", current)
	}
	lv, err := parseSemver(latest)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing latest version %q", latest)
	}
	return cv.Compare(lv), nil
}

// IsUpdateAvailable returns true if latest is newer than current. Development
// builds are always considered out of date.
func IsUpdateAvailable(current, latest string) (bool, error) {
	if current == DevVersion {
		return true, nil
	}
	cmp, err := CompareVersions(current, latest)
	if err != nil {
		return false, err
	}
	return cmp == -1, nil
}

func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
