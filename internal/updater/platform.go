package updater

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/branding"
)

const checksumsAsset = "checksums.txt"

// ArchiveName returns the expected archive filename for the current platform,
// e.g. cza_linux_amd64.tar.gz (or .zip for Windows).
func ArchiveName() string {
	return archiveNameFor(runtime.GOOS, runtime.GOARCH)
}

func archiveNameFor(goos, goarch string) string {
	ext := ".tar.gz"
	if goos == "windows" {
		ext = ".zip"
	}
	return fmt.Sprintf("%s_%s_%s%s", branding.CLIName(), goos, goarch, ext)
}

// BinaryName returns the executable name inside release archives.
func BinaryName() string {
	if IsWindows() {
		return branding.CLIName() + ".exe"
	}
	return branding.CLIName()
}

// SelectAssetForPlatform finds the asset matching the current OS/arch.
func SelectAssetForPlatform(assets []Asset) (*Asset, error) {
	return selectAsset(assets, runtime.GOOS, runtime.GOARCH)
}

func selectAsset(assets []Asset, goos, goarch string) (*Asset, error) {
	expected := archiveNameFor(goos, goarch)
	for i := range assets {
		if assets[i].Name == expected {
			return &assets[i], nil
		}
	}

	// Fall back to any archive carrying the os_arch pair.
	pattern := fmt.Sprintf("%s_%s", goos, goarch)
	for i := range assets {
		if strings.Contains(assets[i].Name, pattern) && isArchive(assets[i].Name) {
			return &assets[i], nil
		}
	}

	return nil, errors.Wrapf(errUtils.ErrNoPlatformAsset, "%s/%s (expected %s)", goos, goarch, expected)
}

// IsWindows returns true if the current OS is Windows.
func IsWindows() bool {
	return runtime.GOOS == "windows"
}

func isArchive(name string) bool {
	return strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".zip")
}
